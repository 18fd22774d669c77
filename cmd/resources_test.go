package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

func TestResources_CloseRunsNewestFirstOnce(t *testing.T) {
	res := newResources()

	var order []string
	res.add(func() { order = append(order, "redis") })
	res.add(func() { order = append(order, "valkey") })
	res.add(func() { order = append(order, "postgres") })

	res.close()
	res.close()

	require.Equal(t, []string{"postgres", "valkey", "redis"}, order)
}

func TestCloseResources_ReleasesContainerClients(t *testing.T) {
	container := dig.New()
	require.NoError(t, container.Provide(newResources))

	closed := 0
	require.NoError(t, container.Provide(func(res *resources) *int {
		res.add(func() { closed++ })
		return &closed
	}))
	require.NoError(t, container.Invoke(func(*int) {}))

	closeResources(container)

	require.Equal(t, 1, closed)
}
