package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*DingTalkOptions)(nil)

// DingTalkOptions configures the DingTalk robot webhook used to deliver
// verification codes. When Webhook is empty the hub falls back to a no-op
// notifier and codes are only visible in the logs.
type DingTalkOptions struct {
	// Webhook is the robot webhook URL including the access_token query.
	Webhook string `json:"webhook" mapstructure:"webhook"`

	// Secret is the robot signing secret used for the HMAC-SHA256 signature.
	Secret string `json:"secret" mapstructure:"secret"`

	// Timeout bounds the webhook POST.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewDingTalkOptions creates a DingTalkOptions object with default parameters.
func NewDingTalkOptions() *DingTalkOptions {
	return &DingTalkOptions{
		Timeout: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *DingTalkOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Webhook != "" && o.Secret == "" {
		errs = append(errs, errors.New("dingtalk.secret is required when dingtalk.webhook is set"))
	}

	return errs
}

// AddFlags adds flags for DingTalkOptions to the specified FlagSet.
func (o *DingTalkOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Webhook, "dingtalk.webhook", o.Webhook, "DingTalk robot webhook URL (empty disables notification).")
	fs.StringVar(&o.Secret, "dingtalk.secret", o.Secret, "DingTalk robot signing secret.")
	fs.DurationVar(&o.Timeout, "dingtalk.timeout", o.Timeout, "Timeout for webhook delivery.")
}
