package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcStep is a Step backed by a function, for tests.
type funcStep struct {
	BaseStage
	run func(ctx context.Context, state *OperationState) error
}

func newFuncStep(id string, deps []string, run func(context.Context, *OperationState) error) *funcStep {
	return &funcStep{BaseStage: NewBaseStage(id, id, deps), run: run}
}

func (s *funcStep) Execute(ctx context.Context, state *OperationState) error {
	if s.run == nil {
		return nil
	}
	return s.run(ctx, state)
}

func ids(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID()
	}
	return out
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFuncStep("a", nil, nil)))

	assert.Error(t, r.Register(newFuncStep("a", nil, nil)), "duplicate id")
	assert.Error(t, r.Register(newFuncStep("", nil, nil)), "empty id")
	assert.Error(t, r.Register(nil))

	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []string{"a"}, r.ListIDs())
}

func TestRegistry_GetDependencyOrder(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		want    []string
		wantErr string
	}{
		{
			name: "registration order when independent",
			steps: []Step{
				newFuncStep("b", nil, nil),
				newFuncStep("a", nil, nil),
			},
			want: []string{"b", "a"},
		},
		{
			name: "dependencies first",
			steps: []Step{
				newFuncStep("compose", []string{"render"}, nil),
				newFuncStep("render", []string{"load"}, nil),
				newFuncStep("load", nil, nil),
			},
			want: []string{"load", "render", "compose"},
		},
		{
			name: "ready steps keep registration order",
			steps: []Step{
				newFuncStep("load", nil, nil),
				newFuncStep("export", []string{"load"}, nil),
				newFuncStep("render", []string{"load"}, nil),
			},
			want: []string{"load", "export", "render"},
		},
		{
			name: "unknown dependency",
			steps: []Step{
				newFuncStep("a", []string{"ghost"}, nil),
			},
			wantErr: "unknown step ghost",
		},
		{
			name: "cycle",
			steps: []Step{
				newFuncStep("a", []string{"b"}, nil),
				newFuncStep("b", []string{"a"}, nil),
			},
			wantErr: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, r.Register(s))
			}

			got, err := r.GetDependencyOrder()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}
