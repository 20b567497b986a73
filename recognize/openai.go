package recognize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultModel = "gpt-4o-mini"

// prompt teaches the model the chord text grammar.
const prompt = `You transcribe chord charts into a plain text format.
Output only the chart, with no commentary.
Start every section with a line "= Name", e.g. "= Verse 1".
Write one row of bars per line, each bar between pipes: "| C | G | Am | F |".
Up to three chords in one bar are separated by " ; ", e.g. "| C ; G |".
Use "%" for a bar that repeats the previous one and "." for an empty bar.
Keep repeat signs such as "||:" and ":||" inside the bar they belong to.
Leave a blank line between sections.`

// OpenAIOptions configures an OpenAI recognizer.
type OpenAIOptions struct {
	APIKey string
	// BaseURL selects an OpenAI compatible service; empty means OpenAI.
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	// MaxRetries is the number of retries of a failed request. Negative
	// values keep the client default.
	MaxRetries int
	Logger     *slog.Logger
}

// OpenAI recognizes chord charts in images with a vision capable chat model.
// Text input is passed to the model as is, so that it can also reformat
// charts written in other notations.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("recognize: an API key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.MaxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	o := &OpenAI{client: openai.NewClient(reqOpts...), model: opts.Model, logger: opts.Logger}
	if o.model == "" {
		o.model = DefaultModel
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

func (o *OpenAI) Recognize(ctx context.Context, r io.Reader) (string, error) {
	b, err := readAll(r)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(b)
	var part openai.ChatCompletionContentPartUnionParam
	if strings.HasPrefix(mime, "image/") {
		url := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
		part = openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url})
	} else {
		part = openai.TextContentPart(string(b))
	}
	user := openai.ChatCompletionUserMessageParam{
		Content: openai.ChatCompletionUserMessageParamContentUnion{
			OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Transcribe this chord chart."),
				part,
			},
		},
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			{OfUser: &user},
		},
	}
	o.logger.Debug("recognizing chord chart", "model", o.model, "mime", mime, "bytes", len(b))
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("recognize: the model returned no choices")
	}
	text := stripFences(resp.Choices[0].Message.Content)
	o.logger.Debug("recognized chord chart", "chars", len(text))
	return text, nil
}
