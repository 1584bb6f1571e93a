package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/rewind/internal/storage"
)

type storageOptions struct {
	backend           string
	redisHost         string
	redisPort         int
	redisPassword     string
	redisDB           int
	redisCluster      bool
	redisClusterNodes []string
	redisPoolSize     int
	redisMaxRetries   int
	redisDialTimeout  time.Duration
}

func defaultStorageOptions() storageOptions {
	d := storage.DefaultConfig()
	return storageOptions{
		backend:          d.Backend,
		redisHost:        d.Redis.Host,
		redisPort:        d.Redis.Port,
		redisDB:          d.Redis.DB,
		redisPoolSize:    d.Redis.PoolSize,
		redisMaxRetries:  d.Redis.MaxRetries,
		redisDialTimeout: d.Redis.DialTimeout,
	}
}

func (o *storageOptions) addFlags(cmd *cobra.Command) {
	d := defaultStorageOptions()
	cmd.Flags().StringVar(&o.backend, "storage", d.backend, "counter storage backend (memory, redis)")
	cmd.Flags().StringVar(&o.redisHost, "redis-host", d.redisHost, "redis host (or host:port)")
	cmd.Flags().IntVar(&o.redisPort, "redis-port", d.redisPort, "redis port")
	cmd.Flags().StringVar(&o.redisPassword, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&o.redisDB, "redis-db", d.redisDB, "redis database index")
	cmd.Flags().BoolVar(&o.redisCluster, "redis-cluster", false, "enable redis cluster mode")
	cmd.Flags().StringSliceVar(&o.redisClusterNodes, "redis-cluster-nodes", nil, "redis cluster nodes host:port list")
	cmd.Flags().IntVar(&o.redisPoolSize, "redis-pool-size", d.redisPoolSize, "redis connection pool size")
	cmd.Flags().IntVar(&o.redisMaxRetries, "redis-max-retries", d.redisMaxRetries, "redis max retries")
	cmd.Flags().DurationVar(&o.redisDialTimeout, "redis-dial-timeout", d.redisDialTimeout, "redis dial timeout")
}

func (o *storageOptions) applyConfigIfUnset(cmd *cobra.Command, cfg *storage.Config) {
	if cfg == nil {
		return
	}

	if !cmd.Flags().Changed("storage") {
		o.backend = cfg.Backend
	}
	if !cmd.Flags().Changed("redis-host") {
		o.redisHost = cfg.Redis.Host
	}
	if !cmd.Flags().Changed("redis-port") {
		o.redisPort = cfg.Redis.Port
	}
	if !cmd.Flags().Changed("redis-password") {
		o.redisPassword = cfg.Redis.Password
	}
	if !cmd.Flags().Changed("redis-db") {
		o.redisDB = cfg.Redis.DB
	}
	if !cmd.Flags().Changed("redis-cluster") {
		o.redisCluster = cfg.Redis.Cluster
	}
	if !cmd.Flags().Changed("redis-cluster-nodes") {
		o.redisClusterNodes = cfg.Redis.ClusterNodes
	}
	if !cmd.Flags().Changed("redis-pool-size") {
		o.redisPoolSize = cfg.Redis.PoolSize
	}
	if !cmd.Flags().Changed("redis-max-retries") {
		o.redisMaxRetries = cfg.Redis.MaxRetries
	}
	if !cmd.Flags().Changed("redis-dial-timeout") {
		o.redisDialTimeout = cfg.Redis.DialTimeout
	}
}

func (o *storageOptions) normalize() error {
	if o.backend != storage.BackendRedis || o.redisCluster {
		return nil
	}

	host, port, err := normalizeRedisHostPort(o.redisHost, o.redisPort)
	if err != nil {
		return err
	}
	o.redisHost = host
	o.redisPort = port
	return nil
}

func (o *storageOptions) toConfig() storage.Config {
	return storage.Config{
		Backend: o.backend,
		Redis: storage.RedisConfig{
			Host:         o.redisHost,
			Port:         o.redisPort,
			Password:     o.redisPassword,
			DB:           o.redisDB,
			Cluster:      o.redisCluster,
			ClusterNodes: append([]string(nil), o.redisClusterNodes...),
			PoolSize:     o.redisPoolSize,
			MaxRetries:   o.redisMaxRetries,
			DialTimeout:  o.redisDialTimeout,
		},
	}
}

func normalizeRedisHostPort(host string, port int) (string, int, error) {
	if strings.Contains(host, ":") {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return "", 0, fmt.Errorf("invalid --redis-host value %q: %w", host, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid redis port in --redis-host %q: %w", host, err)
		}
		host = h
		port = n
	}

	if host == "" {
		return "", 0, fmt.Errorf("redis host cannot be empty")
	}
	if port <= 0 {
		return "", 0, fmt.Errorf("redis port must be positive, got %d", port)
	}

	return host, port, nil
}
