package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SocketOptions)(nil)

// SocketOptions tunes the session timings of the managed socket.
type SocketOptions struct {
	// CodeTTL is how long an issued verification code stays valid.
	CodeTTL time.Duration `json:"code-ttl" mapstructure:"code-ttl"`

	// LivenessTimeout is how long after the last report the socket still
	// counts as online.
	LivenessTimeout time.Duration `json:"liveness-timeout" mapstructure:"liveness-timeout"`
}

// NewSocketOptions creates a SocketOptions object with default parameters.
func NewSocketOptions() *SocketOptions {
	return &SocketOptions{
		CodeTTL:         5 * time.Minute,
		LivenessTimeout: 30 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *SocketOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.CodeTTL <= 0 {
		errs = append(errs, errors.New("socket.code-ttl must be positive"))
	}
	if o.LivenessTimeout <= 0 {
		errs = append(errs, errors.New("socket.liveness-timeout must be positive"))
	}

	return errs
}

// AddFlags adds flags for SocketOptions to the specified FlagSet.
func (o *SocketOptions) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.CodeTTL, "socket.code-ttl", o.CodeTTL, "Lifetime of an issued verification code.")
	fs.DurationVar(&o.LivenessTimeout, "socket.liveness-timeout", o.LivenessTimeout, "Silence after which the socket is considered offline.")
}
