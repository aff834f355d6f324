package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDistributeCmd(t *testing.T) {
	out, err := execute(t, "distribute", "100", "7")
	require.NoError(t, err)
	assert.Equal(t, "15 15 14 14 14 14 14\n", out)
}

func TestDistributeCmd_Rejects(t *testing.T) {
	_, err := execute(t, "distribute", "10", "0")
	assert.Error(t, err)

	_, err = execute(t, "distribute", "2.5", "3")
	assert.Error(t, err)

	_, err = execute(t, "distribute", "ten", "3")
	assert.Error(t, err)
}

func TestWorkdaysCmd_WithHoliday(t *testing.T) {
	out, err := execute(t, "workdays", "2025-03-03", "2025-03-09", "--holiday", "2025-03-05")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"2025-03-03 Mon",
		"2025-03-04 Tue",
		"2025-03-06 Thu",
		"2025-03-07 Fri",
		"4 workdays",
	}, lines)
}

func TestWorkdaysCmd_FridayWeekend(t *testing.T) {
	out, err := execute(t, "workdays", "2025-03-03", "2025-03-09", "--weekend", "fri")
	require.NoError(t, err)
	assert.Contains(t, out, "6 workdays")
	assert.NotContains(t, out, "Fri")
}

func TestPlanCmd(t *testing.T) {
	out, err := execute(t, "plan", "--units", "10", "--start", "2025-03-03", "--end", "2025-03-07", "--unit", "m3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"DATE", "QUANTITY", "UNIT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2025-03-03", "2", "m3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2025-03-07", "2", "m3"}, strings.Fields(lines[5]))
}

func TestPlanCmd_WeekendOnlyRange(t *testing.T) {
	_, err := execute(t, "plan", "--units", "10", "--start", "2025-03-08", "--end", "2025-03-09")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no workdays")
}

func TestPlanCmd_MissingFlags(t *testing.T) {
	_, err := execute(t, "plan", "--units", "10")
	assert.Error(t, err)
}
