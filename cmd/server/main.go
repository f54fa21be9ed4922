package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syncwatch/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 3000,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 10,
		usage:        "Maximum number of members in a room, 0 for no limit",
	}
	playlistLimit = configVar[int]{
		envKey:       "SERVER_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: 100,
		usage:        "Maximum number of files in a playlist, 0 for no limit",
	}
	syncDelay = configVar[time.Duration]{
		envKey:       "SERVER_SYNC_DELAY",
		flagKey:      "sync-delay",
		defaultValue: 500 * time.Millisecond,
		usage:        "Lead time between a playback command and its execution",
	}
	playPermissionGate = configVar[bool]{
		envKey:       "SERVER_PLAY_PERMISSION_GATE",
		flagKey:      "play-permission-gate",
		defaultValue: false,
		usage:        "Refuse play and pause until every member selected a file",
	}
	storage = configVar[string]{
		envKey:       "SERVER_STORAGE",
		flagKey:      "storage",
		defaultValue: app.StorageMemory,
		usage:        "Room storage: memory or redis",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	roomExp = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_EXP",
		flagKey:      "room-exp",
		defaultValue: 24 * time.Hour,
		usage:        "Expiration of idle rooms in redis",
	}
	staticDir = configVar[string]{
		envKey:       "SERVER_STATIC_DIR",
		flagKey:      "static-dir",
		defaultValue: "",
		usage:        "Directory of the web client, not served when empty",
	}
	connRate = configVar[float64]{
		envKey:       "SERVER_CONN_RATE",
		flagKey:      "conn-rate",
		defaultValue: 1,
		usage:        "Websocket connections per second per IP",
	}
	connBurst = configVar[int]{
		envKey:       "SERVER_CONN_BURST",
		flagKey:      "conn-burst",
		defaultValue: 10,
		usage:        "Websocket connection burst per IP",
	}
	msgRate = configVar[float64]{
		envKey:       "SERVER_MSG_RATE",
		flagKey:      "msg-rate",
		defaultValue: 20,
		usage:        "Messages per second per connection",
	}
	msgBurst = configVar[int]{
		envKey:       "SERVER_MSG_BURST",
		flagKey:      "msg-burst",
		defaultValue: 40,
		usage:        "Message burst per connection",
	}
	trustProxy = configVar[bool]{
		envKey:       "SERVER_TRUST_PROXY",
		flagKey:      "trust-proxy",
		defaultValue: false,
		usage:        "Take the client IP from X-Forwarded-For / X-Real-IP, only behind a reverse proxy",
	}
	configFile = configVar[string]{
		envKey:       "SERVER_CONFIG",
		flagKey:      "config",
		defaultValue: "",
		usage:        "Optional config file (yaml, json, toml)",
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() (*app.AppConfig, error) {
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, membersLimit.usage)
	pflag.Int(playlistLimit.flagKey, playlistLimit.defaultValue, playlistLimit.usage)
	pflag.Duration(syncDelay.flagKey, syncDelay.defaultValue, syncDelay.usage)
	pflag.Bool(playPermissionGate.flagKey, playPermissionGate.defaultValue, playPermissionGate.usage)
	pflag.String(storage.flagKey, storage.defaultValue, storage.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Duration(roomExp.flagKey, roomExp.defaultValue, roomExp.usage)
	pflag.String(staticDir.flagKey, staticDir.defaultValue, staticDir.usage)
	pflag.Float64(connRate.flagKey, connRate.defaultValue, connRate.usage)
	pflag.Int(connBurst.flagKey, connBurst.defaultValue, connBurst.usage)
	pflag.Float64(msgRate.flagKey, msgRate.defaultValue, msgRate.usage)
	pflag.Int(msgBurst.flagKey, msgBurst.defaultValue, msgBurst.usage)
	pflag.Bool(trustProxy.flagKey, trustProxy.defaultValue, trustProxy.usage)
	pflag.String(configFile.flagKey, configFile.defaultValue, configFile.usage)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(port)
	bind(host)
	bind(logLevel)
	bind(membersLimit)
	bind(playlistLimit)
	bind(syncDelay)
	bind(playPermissionGate)
	bind(storage)
	bind(redisPort)
	bind(redisHost)
	bind(redisPassword)
	bind(roomExp)
	bind(staticDir)
	bind(connRate)
	bind(connBurst)
	bind(msgRate)
	bind(msgBurst)
	bind(trustProxy)
	bind(configFile)

	if path := viper.GetString(configFile.flagKey); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &app.AppConfig{
		Host:               viper.GetString(host.flagKey),
		Port:               viper.GetInt(port.flagKey),
		LogLevel:           viper.GetString(logLevel.flagKey),
		MembersLimit:       viper.GetInt(membersLimit.flagKey),
		PlaylistLimit:      viper.GetInt(playlistLimit.flagKey),
		SyncDelay:          viper.GetDuration(syncDelay.flagKey),
		PlayPermissionGate: viper.GetBool(playPermissionGate.flagKey),
		Storage:            viper.GetString(storage.flagKey),
		RedisHost:          viper.GetString(redisHost.flagKey),
		RedisPort:          viper.GetInt(redisPort.flagKey),
		RedisPassword:      viper.GetString(redisPassword.flagKey),
		RoomExp:            viper.GetDuration(roomExp.flagKey),
		StaticDir:          viper.GetString(staticDir.flagKey),
		ConnRate:           viper.GetFloat64(connRate.flagKey),
		ConnBurst:          viper.GetInt(connBurst.flagKey),
		MsgRate:            viper.GetFloat64(msgRate.flagKey),
		MsgBurst:           viper.GetInt(msgBurst.flagKey),
		TrustProxy:         viper.GetBool(trustProxy.flagKey),
	}

	return config, config.Validate()
}

func main() {
	ctx := context.Background()

	appConfig, err := loadAppConfig()
	if err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
