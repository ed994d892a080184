// Package bedrock implements the ports.Converser, ports.ImageGenerator and
// ports.ModelCatalog interfaces on top of Amazon Bedrock using the AWS SDK
// for Go v2.
//
// Every outbound call passes through a shared token bucket so that a chat
// turn, its tool calls and image generation together stay below the
// configured requests-per-minute.
package bedrock

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/time/rate"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

// runtimeAPI is the subset of the bedrockruntime client used here.
type runtimeAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// catalogAPI is the subset of the bedrock control-plane client used here.
type catalogAPI interface {
	ListFoundationModels(ctx context.Context, in *bedrock.ListFoundationModelsInput, opts ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error)
}

// Options configures a Client.
type Options struct {
	// ImageModel is the model id used for TextToImage.
	ImageModel string

	// RequestsPerMinute caps outbound calls. Zero or negative disables the cap.
	RequestsPerMinute int
}

// Client talks to Bedrock.
type Client struct {
	runtime    runtimeAPI
	catalog    catalogAPI
	imageModel string
	limiter    *rate.Limiter
}

var (
	_ ports.Converser      = (*Client)(nil)
	_ ports.ImageGenerator = (*Client)(nil)
	_ ports.ModelCatalog   = (*Client)(nil)
)

// NewConfig loads the AWS configuration. Credentials and region resolve in
// the usual SDK order; profile and region, when set, override it.
func NewConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.AWSConfigTimeout)
	defer cancel()

	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.WrapWithContext(errors.ErrCodeUnauthorized, "failed to load AWS configuration", err,
			map[string]any{"profile": profile, "region": region})
	}
	if cfg.Region == "" {
		return aws.Config{}, errors.New(errors.ErrCodeInvalidRequest,
			"no AWS region configured (use --region or set AWS_REGION)")
	}
	slog.Debug("aws config loaded", "profile", profile, "region", cfg.Region)
	return cfg, nil
}

// New creates a Client from an AWS configuration.
func New(cfg aws.Config, opts Options) *Client {
	return newClient(bedrockruntime.NewFromConfig(cfg), bedrock.NewFromConfig(cfg), opts)
}

func newClient(rt runtimeAPI, cat catalogAPI, opts Options) *Client {
	if opts.ImageModel == "" {
		opts.ImageModel = defaults.ImageModel
	}
	return &Client{
		runtime:    rt,
		catalog:    cat,
		imageModel: opts.ImageModel,
		limiter:    newLimiter(opts.RequestsPerMinute),
	}
}

// newLimiter returns a token bucket refilling rpm tokens per minute with a
// small burst so a tool round trip is not delayed needlessly.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := min(rpm, 3)
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// wait blocks until the limiter admits one request.
func (c *Client) wait(ctx context.Context, op string) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		if stderrors.Is(err, context.Canceled) {
			return err
		}
		return errors.Wrap(errors.ErrCodeRateLimitExceeded,
			fmt.Sprintf("%s: request rate limit wait aborted", op), err)
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		limiterWait.Observe(waited.Seconds())
		slog.Debug("rate limiter delayed request", "operation", op, "waited", waited)
	}
	return nil
}
