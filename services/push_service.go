package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"nutriplan/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsAPI is the slice of the SNS client used here.
type snsAPI interface {
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// PushService forwards completion events to an SNS topic, where the
// notification side subscribes.
type PushService struct {
	sns      snsAPI
	topicArn string
}

func NewPushService(ctx context.Context, region, topicArn string) (*PushService, error) {
	if topicArn == "" {
		return nil, errors.New("SNS_COMPLETION_TOPIC_ARN not set")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &PushService{sns: awssns.NewFromConfig(cfg), topicArn: topicArn}, nil
}

func (p *PushService) Name() string { return "sns" }

func (p *PushService) PublishCompletion(ctx context.Context, ev models.CompletionEvent) error {
	body, err := json.Marshal(map[string]any{
		"kind":  "plan.completed",
		"event": ev,
	})
	if err != nil {
		return err
	}
	_, err = p.sns.Publish(ctx, &awssns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Subject:  aws.String("Plan completed"),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"kind":    {DataType: aws.String("String"), StringValue: aws.String("plan.completed")},
			"user_id": {DataType: aws.String("Number"), StringValue: aws.String(strconv.FormatUint(uint64(ev.UserID), 10))},
		},
	})
	return err
}
