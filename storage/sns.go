package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sts"

	"github.com/skylander86/uriutils/interfaces"
)

// SNSHandle implements a write-only storage handle that publishes to an
// AWS SNS topic. Everything after the scheme (minus query parameters) is
// one opaque topic identifier, either a full ARN or a bare topic name:
//
//	sns://arn:aws:sns:us-east-1:123456789012:jobs-done
//	sns://jobs-done?region=eu-west-1&subject=batch
//
// Bare names are resolved against the caller's account via STS. Closing a
// write stream publishes the buffered content as a single message.
type SNSHandle struct {
	snsClient *sns.SNS
	stsClient *sts.STS
	topic     string
	region    string
	subject   string
	uri       interfaces.ParsedURI
	mode      interfaces.Mode
	log       *slog.Logger

	topicARN string // resolved lazily
}

// NewSNSHandle creates an unopened SNS handle. Topics cannot be read
// (Open rejects read modes); append is meaningless for a notification and
// rejected up front. Read-mode handles are still constructable so that
// existence and metadata queries work uniformly.
func NewSNSHandle(uri interfaces.ParsedURI, mode interfaces.Mode, cfg Config, log *slog.Logger) (*SNSHandle, error) {
	if mode.IsAppend() {
		return nil, fmt.Errorf("%w: sns does not support append (%s)", interfaces.ErrUnsupportedMode, uri.Raw)
	}

	topic := strings.Trim(uri.Opaque, "/")
	if topic == "" {
		return nil, fmt.Errorf("%w: %q has no topic", interfaces.ErrInvalidURI, uri.Raw)
	}

	region := uri.GetParam("region")
	if region == "" {
		region = cfg.SNSRegion
	}
	// An ARN names its own region.
	if parts := strings.Split(topic, ":"); len(parts) == 6 && parts[0] == "arn" {
		region = parts[3]
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &SNSHandle{
		snsClient: sns.New(sess),
		stsClient: sts.New(sess),
		topic:     topic,
		region:    region,
		subject:   uri.GetParam("subject"),
		uri:       uri,
		mode:      mode,
		log:       log,
	}, nil
}

// URI returns the parsed URI this handle refers to.
func (h *SNSHandle) URI() interfaces.ParsedURI {
	return h.uri
}

// Mode returns the open mode the handle was constructed with.
func (h *SNSHandle) Mode() interfaces.Mode {
	return h.mode
}

// Open returns a write stream whose Close publishes the buffered content
// to the topic as one UTF-8 message. Read modes fail with
// ErrUnsupportedMode.
func (h *SNSHandle) Open(ctx context.Context) (interfaces.Stream, error) {
	if h.mode.IsRead() {
		return nil, fmt.Errorf("%w: sns topics cannot be read (%s)", interfaces.ErrUnsupportedMode, h.uri.Raw)
	}

	return newPutStream(h.uri.Raw, func(data []byte) error {
		arn, err := h.resolveTopicARN(ctx)
		if err != nil {
			return err
		}

		start := time.Now()
		input := &sns.PublishInput{
			TopicArn: aws.String(arn),
			Message:  aws.String(string(data)),
		}
		if h.subject != "" {
			input.Subject = aws.String(h.subject)
		}

		result, err := h.snsClient.PublishWithContext(ctx, input)
		if err != nil {
			return fmt.Errorf("%w: publish to %s: %v", interfaces.ErrBackendUnavailable, arn, err)
		}

		h.log.Debug("Published message to SNS",
			slog.String("topic", arn),
			slog.String("messageID", aws.StringValue(result.MessageId)),
			slog.Int("size", len(data)),
			slog.Duration("duration", time.Since(start)))

		return nil
	}), nil
}

// Exists reports whether the topic exists by querying its attributes.
func (h *SNSHandle) Exists(ctx context.Context) (bool, error) {
	arn, err := h.resolveTopicARN(ctx)
	if err != nil {
		return false, err
	}

	_, err = h.snsClient.GetTopicAttributesWithContext(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(arn),
	})
	if err != nil {
		if isSNSNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: get attributes of %s: %v", interfaces.ErrBackendUnavailable, arn, err)
	}
	return true, nil
}

// Metadata returns the topic attributes. Topics have no size or
// modification time, so only Extra is populated.
func (h *SNSHandle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	arn, err := h.resolveTopicARN(ctx)
	if err != nil {
		return interfaces.Metadata{}, err
	}

	result, err := h.snsClient.GetTopicAttributesWithContext(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(arn),
	})
	if err != nil {
		if isSNSNotFound(err) {
			return interfaces.Metadata{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, arn)
		}
		return interfaces.Metadata{}, fmt.Errorf("%w: get attributes of %s: %v", interfaces.ErrBackendUnavailable, arn, err)
	}

	md := interfaces.Metadata{Extra: make(map[string]string)}
	for name, value := range result.Attributes {
		md.Extra[name] = aws.StringValue(value)
	}
	return md, nil
}

// resolveTopicARN expands a bare topic name into a full ARN using the
// caller's account, as reported by STS. Full ARNs pass through unchanged.
func (h *SNSHandle) resolveTopicARN(ctx context.Context) (string, error) {
	if h.topicARN != "" {
		return h.topicARN, nil
	}

	if strings.HasPrefix(h.topic, "arn:") {
		h.topicARN = h.topic
		return h.topicARN, nil
	}

	identity, err := h.stsClient.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("%w: resolve account for topic %q: %v", interfaces.ErrBackendUnavailable, h.topic, err)
	}

	h.topicARN = fmt.Sprintf("arn:aws:sns:%s:%s:%s", h.region, aws.StringValue(identity.Account), h.topic)
	h.log.Debug("Resolved SNS topic name to ARN",
		slog.String("topic", h.topic),
		slog.String("arn", h.topicARN))

	return h.topicARN, nil
}

func isSNSNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.Code() == sns.ErrCodeNotFoundException
}
