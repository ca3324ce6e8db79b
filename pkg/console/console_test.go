package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/barista/pkg/machine"
	"github.com/openfroyo/barista/pkg/recipe"
	"github.com/openfroyo/barista/pkg/reservoir"
)

func newTestMachine(t *testing.T, water, beans, milk int) *machine.Machine {
	t.Helper()
	build := func(kind reservoir.Kind, capacity int) *reservoir.Reservoir {
		r, err := reservoir.New(kind, capacity)
		require.NoError(t, err)
		return r
	}
	m, err := machine.New(
		build(reservoir.Water, water),
		build(reservoir.Beans, beans),
		build(reservoir.Milk, milk),
		machine.WithName("test"),
	)
	require.NoError(t, err)
	return m
}

func runScript(t *testing.T, m *machine.Machine, script string) string {
	t.Helper()
	var out bytes.Buffer
	s := New(m, strings.NewReader(script), &out, WithPrompt(""))
	require.NoError(t, s.Run(context.Background()))
	return out.String()
}

func TestSession_Script(t *testing.T) {
	m := newTestMachine(t, 300, 50, 100)

	out := runScript(t, m, strings.Join([]string{
		"brew coffee",
		"on",
		"brew coffee",
		"brew latte",
		"refill water 500",
		"brew latte",
		"",
		"off",
		"brew espresso",
	}, "\n"))

	assert.Contains(t, out, "error: Coffee Machine is OFF. Please turn it ON before brewing.\n")
	assert.Contains(t, out, "Coffee Machine is ON.\n")
	assert.Contains(t, out, "Your coffee is ready!\n")
	assert.Contains(t, out, "error: Not enough water!\n")
	assert.Contains(t, out, "water: 300/300ml\n")
	assert.Contains(t, out, "Your latte is ready!\n")
	assert.Contains(t, out, "Coffee Machine is OFF.\n")

	assert.Equal(t, 1, m.BrewCount(recipe.Coffee))
	assert.Equal(t, 1, m.BrewCount(recipe.Latte))
	assert.Equal(t, 0, m.BrewCount(recipe.Espresso))
	assert.False(t, m.IsPoweredOn())
}

func TestSession_MultiWordProduct(t *testing.T) {
	m := newTestMachine(t, 1000, 1000, 1000)

	out := runScript(t, m, "on\nbrew double espresso\nbrew Double-Espresso\n")

	assert.Equal(t, 2, strings.Count(out, "Your double espresso is ready!"))
	assert.Equal(t, 2, m.BrewCount(recipe.DoubleEspresso))
}

func TestSession_InputErrors(t *testing.T) {
	m := newTestMachine(t, 1000, 1000, 1000)

	out := runScript(t, m, strings.Join([]string{
		"brew",
		"brew tea",
		"refill water",
		"refill sugar 10",
		"refill milk lots",
		"refill milk -5",
		"dance",
	}, "\n"))

	assert.Contains(t, out, "usage: brew <product>")
	assert.Contains(t, out, `error: unknown product: "tea"`)
	assert.Contains(t, out, "usage: refill <water|beans|milk> <amount>")
	assert.Contains(t, out, `error: unknown reservoir kind: "sugar"`)
	assert.Contains(t, out, `error: invalid amount "lots"`)
	assert.Contains(t, out, "amount must not be negative")
	assert.Contains(t, out, `unknown command "dance"`)
}

func TestSession_RefillHugeAmountClampsAtCapacity(t *testing.T) {
	m := newTestMachine(t, 2000, 500, 1000)

	out := runScript(t, m, strings.Join([]string{
		"on",
		"brew coffee",
		"refill water " + strconv.Itoa(math.MaxInt),
		"brew coffee",
	}, "\n"))

	assert.Contains(t, out, "water: 2000/2000ml\n")
	assert.Equal(t, 2, strings.Count(out, "Your coffee is ready!"))
	assert.NotContains(t, out, "Not enough water!")

	snap, err := m.Reservoir(reservoir.Water)
	require.NoError(t, err)
	assert.Equal(t, 1800, snap.Level)
}

func TestSession_StatusAndCounts(t *testing.T) {
	m := newTestMachine(t, 1000, 500, 1000)

	out := runScript(t, m, "on\nbrew cappuccino\nbrew cappuccino\nstatus\ncounts\n")

	assert.True(t, hasRow(out, "power", "ON"))
	assert.True(t, hasRow(out, "water", "800/1000ml"))
	assert.True(t, hasRow(out, "beans", "450/500g"))
	assert.True(t, hasRow(out, "milk", "700/1000ml"))
	assert.True(t, hasRow(out, "cappuccino", "2"))
	assert.True(t, hasRow(out, "CAPPUCCINO", "2"))
	assert.True(t, hasRow(out, "LATTE", "0"))
}

// hasRow reports whether some line of tabular output has exactly fields.
func hasRow(out string, fields ...string) bool {
	want := strings.Join(fields, " ")
	for _, line := range strings.Split(out, "\n") {
		if strings.Join(strings.Fields(line), " ") == want {
			return true
		}
	}
	return false
}

func TestSession_Quit(t *testing.T) {
	m := newTestMachine(t, 1000, 1000, 1000)

	out := runScript(t, m, "on\nquit\nbrew coffee\n")

	assert.Contains(t, out, "Bye!")
	assert.Equal(t, 0, m.BrewCount(recipe.Coffee), "commands after quit are not run")
}

func TestSession_Prompt(t *testing.T) {
	m := newTestMachine(t, 1000, 1000, 1000)

	var out bytes.Buffer
	s := New(m, strings.NewReader("on\n"), &out)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, strings.Count(out.String(), DefaultPrompt))
}

func TestSession_ContextCancel(t *testing.T) {
	m := newTestMachine(t, 1000, 1000, 1000)

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(m, pr, io.Discard).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop on cancel")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestSession_ReadError(t *testing.T) {
	m := newTestMachine(t, 1000, 1000, 1000)

	err := New(m, failingReader{}, io.Discard).Run(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestExec_Quit(t *testing.T) {
	m := newTestMachine(t, 1000, 1000, 1000)
	s := New(m, strings.NewReader(""), io.Discard)

	assert.ErrorIs(t, s.Exec(context.Background(), "EXIT"), ErrQuit)
	assert.NoError(t, s.Exec(context.Background(), "   "))
}

func TestWriteRecipes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteRecipes(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(recipe.Products())+1)
	assert.True(t, strings.HasPrefix(lines[0], "PRODUCT"))
	assert.Equal(t, []string{"DOUBLE_ESPRESSO", "150", "40", "0"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"MACCHIATO", "100", "15", "50"}, strings.Fields(lines[6]))
}
