//go:build integration

package etcdtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
	v3 "go.etcd.io/etcd/client/v3"
)

func TestEtcdContainer(t *testing.T) {
	ctx := context.Background()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	client, teardown, err := StartEtcd(pool)
	require.NoError(t, err)
	defer teardown()

	get, err := client.Get(ctx, "/", v3.WithPrefix())
	require.NoError(t, err)
	require.Empty(t, get.Kvs)

	for i := 0; i < 10; i++ {
		_, err := client.Put(ctx, fmt.Sprintf("/%d", i), fmt.Sprintf("value-%d", i))
		require.NoError(t, err)
	}

	get, err = client.Get(ctx, "/", v3.WithPrefix())
	require.NoError(t, err)
	require.Len(t, get.Kvs, 10)

	for i := 0; i < 10; i++ {
		require.Equal(t, fmt.Sprintf("/%d", i), string(get.Kvs[i].Key))
		require.Equal(t, fmt.Sprintf("value-%d", i), string(get.Kvs[i].Value))
	}
}
