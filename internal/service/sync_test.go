package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSourceHashDeterministic(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	a := SourceHash(date, -6450, "LOBLAWS #1042 POS PURCHASE")
	b := SourceHash(date, -6450, "LOBLAWS #1042 POS PURCHASE")
	require.Equal(t, a, b)
	require.Len(t, a, 32)
}

func TestSourceHashDiscriminates(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	base := SourceHash(date, -6450, "LOBLAWS")
	require.NotEqual(t, base, SourceHash(date.AddDate(0, 0, 1), -6450, "LOBLAWS"))
	require.NotEqual(t, base, SourceHash(date, -6451, "LOBLAWS"))
	require.NotEqual(t, base, SourceHash(date, -6450, "LOBLAWS "))
}

func TestSourceHashIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	morning := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 10, 20, 30, 0, 0, time.UTC)
	require.Equal(t, SourceHash(morning, -100, "x"), SourceHash(evening, -100, "x"))
}
