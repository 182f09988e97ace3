package services

import (
	"context"
	"encoding/json"
	"testing"

	"nutriplan/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	inputs []*awssns.PublishInput
}

func (f *fakeSNS) Publish(_ context.Context, in *awssns.PublishInput, _ ...func(*awssns.Options)) (*awssns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &awssns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestPushService_PublishCompletion(t *testing.T) {
	fake := &fakeSNS{}
	p := &PushService{sns: fake, topicArn: "arn:aws:sns:ap-south-1:123:plan-completed"}

	err := p.PublishCompletion(context.Background(), models.CompletionEvent{ID: "ev", PlanID: "plan-9", UserID: 12})
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, "arn:aws:sns:ap-south-1:123:plan-completed", aws.ToString(in.TopicArn))
	assert.Equal(t, "12", aws.ToString(in.MessageAttributes["user_id"].StringValue))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &body))
	assert.Equal(t, "plan.completed", body["kind"])
}

func TestNewPushService_RequiresTopic(t *testing.T) {
	_, err := NewPushService(context.Background(), "ap-south-1", "")
	assert.Error(t, err)
}
