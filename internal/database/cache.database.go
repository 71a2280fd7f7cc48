package database

import (
	"context"
	"fmt"
	"palcontent/config"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey database index per cache category
const (
	// GENERAL_CACHE_INDEX (DB 0) - reference data such as service type lists
	GENERAL_CACHE_INDEX = iota

	// SESSION_CACHE_INDEX (DB 1) - validated token to user mappings
	SESSION_CACHE_INDEX

	// USER_CACHE_INDEX (DB 2) - users, technician rosters, franchise look-ups
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX (DB 3) - pub/sub for submission and Tech Hub events
	EVENTS_CACHE_INDEX

	// CLIENT_API_CACHE_INDEX (DB 4) - third party responses (reverse geocoding)
	CLIENT_API_CACHE_INDEX
)

func newCacheClient(address string, port int, index int) (valkey.Client, error) {
	return valkey.NewClient(
		valkey.ClientOption{
			InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
			SelectDB:    index,
		},
	)
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Errorf("failed to initialize cache database", "address or port is empty")
	}

	var cacheDB Cache

	targets := []struct {
		client *CacheClient
		index  int
		name   string
	}{
		{&cacheDB.General, GENERAL_CACHE_INDEX, "general"},
		{&cacheDB.Session, SESSION_CACHE_INDEX, "session"},
		{&cacheDB.User, USER_CACHE_INDEX, "user"},
		{&cacheDB.Events, EVENTS_CACHE_INDEX, "events"},
		{&cacheDB.ClientAPI, CLIENT_API_CACHE_INDEX, "client api"},
	}

	for _, target := range targets {
		client, err := newCacheClient(address, port, target.index)
		if err != nil {
			return log.Err("failed to create valkey client", err, "cache", target.name)
		}
		*target.client = client
	}

	s.Cache = cacheDB

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, cacheDB)
	}

	return nil
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clients := cacheDB.clients()
	if index < 0 || index >= len(clients) {
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	client := clients[index].client
	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", clients[index].name)
		return
	}

	log.Info("Successfully cleared cache database", "index", index, "dbName", clients[index].name)
}
