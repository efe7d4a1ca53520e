// Package adk exposes the connector invoker as an ADK agent.
package adk

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/metalagman/imgto3d"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// ErrGenerationFailed wraps Failure and MalformedResponse results.
var ErrGenerationFailed = errors.New("generation failed")

// GenerateAgent turns the user text (an input image path) into a 3D model by
// running the connector script.
type GenerateAgent struct {
	agent.Agent
	opts    GenerateAgentOptions
	invoker *imgto3d.Invoker
}

// NewGenerateAgent creates a new GenerateAgent instance using functional options.
func NewGenerateAgent(
	name string,
	description string,
	interpreter string,
	script string,
	setters ...OptGenerateAgentOptionsSetter,
) (*GenerateAgent, error) {
	opts := NewGenerateAgentOptions(name, description, interpreter, script, setters...)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	invoker, err := imgto3d.NewInvoker(imgto3d.InvokerConfig{
		Interpreter: opts.interpreter,
		Script:      opts.script,
		UseTTY:      opts.useTTY,
	})
	if err != nil {
		return nil, fmt.Errorf("create invoker: %w", err)
	}

	a := &GenerateAgent{opts: opts, invoker: invoker}

	ag, err := agent.New(agent.Config{
		Name:        a.opts.name,
		Description: a.opts.description,
		Run:         a.Run,
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	a.Agent = ag

	return a, nil
}

// Run implements the agent.Agent interface.
// A Success result becomes a model event carrying the status and output path.
func (a *GenerateAgent) Run(ctx agent.InvocationContext) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		req := a.invoker.NewRequest(strings.TrimSpace(getUserInput(ctx)), a.opts.outputDir, a.opts.credential)

		opts := append([]imgto3d.InvokeOption{imgto3d.WithTimeout(a.opts.timeout)}, a.opts.invokeOpts...)

		res, err := a.invoker.Invoke(context.Context(ctx), req, opts...)
		if err != nil {
			yield(nil, err)

			return
		}

		success, ok := res.(imgto3d.Success)
		if !ok {
			yield(nil, fmt.Errorf("%w: %s", ErrGenerationFailed, res.Status()))

			return
		}

		event := session.NewEvent(ctx.InvocationID())
		event.LLMResponse.Content = genai.NewContentFromText(formatSuccess(success), genai.RoleModel)
		event.Author = a.opts.name

		yield(event, nil)
	}
}

func getUserInput(ctx agent.InvocationContext) string {
	userContent := ctx.UserContent()
	if userContent != nil && len(userContent.Parts) > 0 {
		return userContent.Parts[0].Text
	}

	return ""
}

func formatSuccess(s imgto3d.Success) string {
	if s.OutputPath == "" {
		return s.Status()
	}

	return s.Status() + "\n" + s.OutputPath
}
