package status

import (
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/lcmc/crm-manager/pkg/model"
)

const defaultStatusKey = "crm:status:last"

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultStatusKey
	}
	return &RedisStore{client: client, key: key}
}

// RedisStore keeps the last good snapshot in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

func (s *RedisStore) Save(status *model.ClusterStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed marshalling cluster status: %v", err)
	}
	if err := s.client.Set(s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed saving cluster status: %v", err)
	}
	return nil
}

func (s *RedisStore) Load() (*model.ClusterStatus, bool, error) {
	data, err := s.client.Get(s.key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed loading cluster status: %v", err)
	}

	var status model.ClusterStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, false, fmt.Errorf("failed unmarshalling cluster status: %v", err)
	}
	return &status, true, nil
}
