package sns

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/ln80/account-projection/account"
	"github.com/ln80/account-projection/json"
)

type ForwarderConfig struct {
	Serializer account.Serializer
}

// Forwarder pushes account update notifications to an SNS topic.
// Paired with subscription.Forward it bridges in-process watchers
// to out-of-process consumers.
type Forwarder struct {
	svc   ClientAPI
	topic string
	*ForwarderConfig
}

var _ account.UpdatePublisher = &Forwarder{}

func NewForwarder(svc ClientAPI, topic string, opts ...func(cfg *ForwarderConfig)) *Forwarder {
	if svc == nil {
		panic("update forwarder invalid SNS client: nil value")
	}
	fwd := &Forwarder{
		svc:   svc,
		topic: topic,
		ForwarderConfig: &ForwarderConfig{
			Serializer: json.NewSerializer(),
		},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(fwd.ForwarderConfig)
	}

	return fwd
}

// Publish implements account.UpdatePublisher.
//
// Updates are published one by one to preserve the per-account order;
// a FIFO topic keeps that order downstream via the account-based group id.
func (f *Forwarder) Publish(ctx context.Context, updates []account.Update) error {
	if len(updates) == 0 || f.topic == "" {
		return nil
	}

	for _, upd := range updates {
		msg, err := f.Serializer.MarshalUpdate(ctx, upd)
		if err != nil {
			return err
		}
		body := string(msg)

		attributes := map[string]types.MessageAttributeValue{
			"AccID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(upd.AccountID),
			},
			"Kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(upd.Kind)),
			},
		}

		if _, err = f.svc.Publish(ctx, &sns.PublishInput{
			Message:                aws.String(body),
			TopicArn:               aws.String(f.topic),
			MessageAttributes:      attributes,
			MessageDeduplicationId: aws.String(upd.AccountID + "@" + strconv.FormatUint(upd.Seq, 10)),
			MessageGroupId:         aws.String(upd.AccountID),
		}); err != nil {
			return err
		}
	}

	return nil
}
