package etcd

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type Config struct {
	Endpoints []string
	TTL       int
}

type Client struct{ *clientv3.Client }

// New 未配置 endpoints 时返回 (nil, nil)，服务注册随之关闭
func New(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, nil
	}
	cli, err := clientv3.New(clientv3.Config{Endpoints: cfg.Endpoints, DialTimeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	return &Client{cli}, nil
}

// Register 返回 leaseID 以便优雅下线时主动撤销
func (c *Client) Register(ctx context.Context, key, val string, ttl int64) (clientv3.LeaseID, error) {
	lease, err := c.Client.Grant(ctx, ttl)
	if err != nil {
		return 0, err
	}
	if _, err := c.Client.Put(ctx, key, val, clientv3.WithLease(lease.ID)); err != nil {
		return 0, err
	}
	ch, err := c.Client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return 0, err
	}
	go func() {
		for range ch { // 消耗 keepalive channel 维持租约
		}
	}()
	return lease.ID, nil
}

// Deregister 删除 key 并撤销租约；key 可能已随租约过期
func (c *Client) Deregister(ctx context.Context, key string, leaseID clientv3.LeaseID) error {
	if _, err := c.Client.Delete(ctx, key); err != nil {
		return err
	}
	if leaseID > 0 {
		if _, err := c.Client.Revoke(ctx, leaseID); err != nil {
			return err
		}
	}
	return nil
}

// Ping readiness 探测：读一个不存在的 key
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Client.Get(ctx, "health")
	return err
}

func (c *Client) Close() error { return c.Client.Close() }
