package hyperparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConstant(t *testing.T) {
	c := Constant(2e-4)
	assert.Equal(t, "constant", c.TypeString())
	assert.Equal(t, 2e-4, c.Value(0))
	assert.Equal(t, 2e-4, c.Value(100000))
}

func TestStep(t *testing.T) {
	s := Step(1).Add(10, 0.5).Add(20, 0.25)

	for iter, want := range map[int]float64{0: 1, 9: 1, 10: 0.5, 19: 0.5, 20: 0.25, 1000: 0.25} {
		assert.Equal(t, want, s.Value(iter), "iteration %d", iter)
	}
}

func TestScheduleFromYAML(t *testing.T) {
	doc := `
type: step
value: 0.01
steps:
  - iter: 200
    value: 0.001
  - iter: 100
    value: 0.005
`
	var s Schedule
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))

	hp, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, "step", hp.TypeString())
	assert.Equal(t, 0.01, hp.Value(99))
	assert.Equal(t, 0.005, hp.Value(100))
	assert.Equal(t, 0.001, hp.Value(250))
}

func TestScheduleErrors(t *testing.T) {
	_, err := Schedule{Type: "cosine"}.Build()
	assert.Error(t, err)

	_, err = Schedule{Type: "step", Steps: []Change{{Iter: -1}}}.Build()
	assert.Error(t, err)

	hp, err := Schedule{Value: 3}.Build()
	require.NoError(t, err)
	assert.Equal(t, 3.0, hp.Value(7))
}
