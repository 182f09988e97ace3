package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"nutriplan/engine"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type labelDetector interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionService scores a check-in photo against the plan item name.
// It runs outside the engine; only the resulting score is recorded.
type RekognitionService struct {
	client labelDetector
}

func NewRekognitionService(ctx context.Context, region string) (*RekognitionService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &RekognitionService{client: rekognition.NewFromConfig(cfg)}, nil
}

// DecodeDataURI accepts "data:image/...;base64,<payload>" or bare base64.
func DecodeDataURI(s string) ([]byte, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ";base64,")
		if i < 0 || !strings.HasPrefix(s, "data:image") {
			return nil, engine.ValidationError{Field: "photo", Reason: "invalid data URI"}
		}
		payload = s[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, engine.ValidationError{Field: "photo", Reason: "invalid base64 image"}
	}
	return data, nil
}

// Score returns 0..100: the highest confidence among detected labels (or
// their parents) that share a word with itemName.
func (r *RekognitionService) Score(ctx context.Context, photo, itemName string) (float64, error) {
	data, err := DecodeDataURI(photo)
	if err != nil {
		return 0, err
	}
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MaxLabels:     aws.Int32(10),
		MinConfidence: aws.Float32(50),
	})
	if err != nil {
		return 0, err
	}
	if out == nil {
		return 0, errors.New("rekognition: empty response")
	}
	return scoreLabels(out.Labels, itemName), nil
}

func scoreLabels(labels []types.Label, itemName string) float64 {
	words := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(itemName)) {
		words[strings.Trim(w, ",.()")] = struct{}{}
	}
	matches := func(name string) bool {
		for _, w := range strings.Fields(strings.ToLower(name)) {
			if _, ok := words[w]; ok {
				return true
			}
		}
		return false
	}

	var best float64
	for _, l := range labels {
		hit := matches(aws.ToString(l.Name))
		for _, p := range l.Parents {
			hit = hit || matches(aws.ToString(p.Name))
		}
		if c := float64(aws.ToFloat32(l.Confidence)); hit && c > best {
			best = c
		}
	}
	if best > 100 {
		best = 100
	}
	return best
}
