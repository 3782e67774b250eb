package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/pricofy/catalog-translator/internal/domain"
)

// Invoker is the subset of the Lambda client used here.
type Invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaEndpoint translates a batch by synchronously invoking a translator
// Lambda function with the batch request as payload.
type LambdaEndpoint struct {
	client       Invoker
	functionName string
	targetLang   string
	sourceLang   string
}

// NewLambdaEndpoint creates a LambdaEndpoint.
func NewLambdaEndpoint(client Invoker, functionName, targetLang, sourceLang string) *LambdaEndpoint {
	return &LambdaEndpoint{
		client:       client,
		functionName: functionName,
		targetLang:   targetLang,
		sourceLang:   sourceLang,
	}
}

// Translate implements Translator.
func (l *LambdaEndpoint) Translate(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	payload, err := json.Marshal(BatchRequest{Texts: texts, TargetLang: l.targetLang, SourceLang: l.sourceLang})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	result, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(l.functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, &domain.BackendError{Err: fmt.Errorf("failed to invoke %s: %w", l.functionName, err)}
	}

	// Unhandled errors inside the function surface here, not as err.
	if result.FunctionError != nil {
		return nil, &domain.BackendError{
			Err: fmt.Errorf("lambda error: %s: %s", aws.ToString(result.FunctionError), truncate(string(result.Payload), maxErrorBody)),
		}
	}

	var resp BatchResponse
	if err := json.Unmarshal(result.Payload, &resp); err != nil {
		return nil, &domain.BackendError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if resp.Error != "" {
		return nil, &domain.BackendError{Err: fmt.Errorf("translator error: %s", resp.Error)}
	}
	if err := checkLength(len(resp.TranslatedTexts), len(texts)); err != nil {
		return nil, err
	}

	return resp.TranslatedTexts, nil
}
