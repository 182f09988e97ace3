package services

import (
	"context"
	"encoding/base64"
	"testing"

	"nutriplan/engine"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	labels []types.Label
	got    *rekognition.DetectLabelsInput
}

func (f *fakeDetector) DetectLabels(_ context.Context, in *rekognition.DetectLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.got = in
	return &rekognition.DetectLabelsOutput{Labels: f.labels}, nil
}

func label(name string, conf float32, parents ...string) types.Label {
	l := types.Label{Name: aws.String(name), Confidence: aws.Float32(conf)}
	for _, p := range parents {
		l.Parents = append(l.Parents, types.Parent{Name: aws.String(p)})
	}
	return l
}

func TestRekognitionService_Score(t *testing.T) {
	photo := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	fake := &fakeDetector{labels: []types.Label{
		label("Plate", 99),
		label("Salad", 91.5, "Food"),
		label("Chicken", 80, "Food", "Meat"),
	}}
	svc := &RekognitionService{client: fake}

	score, err := svc.Score(context.Background(), photo, "Chicken salad")
	require.NoError(t, err)
	assert.InDelta(t, 91.5, score, 0.001)
	assert.Equal(t, []byte("jpeg-bytes"), fake.got.Image.Bytes)

	score, err = svc.Score(context.Background(), photo, "Oat porridge")
	require.NoError(t, err)
	assert.Zero(t, score)

	// parent labels count too
	score, err = svc.Score(context.Background(), photo, "meat")
	require.NoError(t, err)
	assert.InDelta(t, 80, score, 0.001)
}

func TestDecodeDataURI(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("x"))

	b, err := DecodeDataURI(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), b)

	_, err = DecodeDataURI("data:text/plain;base64," + raw)
	assert.True(t, engine.IsValidation(err))

	_, err = DecodeDataURI("data:image/png;base64,@@@")
	assert.True(t, engine.IsValidation(err))
}
