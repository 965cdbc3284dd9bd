package main

import (
	"context"
	"os"

	"github.com/framez-app/framez-go/bridge"
	"github.com/framez-app/framez-go/mutate"
	"github.com/framez-app/framez-go/provider"
	"github.com/framez-app/framez-go/provider/memory"
	"github.com/framez-app/framez-go/provider/redisstore"
	"github.com/framez-app/framez-go/publish"
	"github.com/framez-app/framez-go/session"
	"github.com/framez-app/framez-go/theme"
	"github.com/framez-app/framez-go/utils/dotenv"
	Flag "github.com/framez-app/framez-go/utils/flag"
	Logger "github.com/framez-app/framez-go/utils/log"
	"github.com/gin-gonic/gin"
)

func buildDocStore() provider.DocStore {
	if os.Getenv("REDIS_HOST") != "" {
		store, err := redisstore.GetStoreFromEnv()
		if err != nil {
			Logger.Log.Fatalf("failed to connect document store: %v", err)
		}
		Logger.Log.Info("using redis document store")
		return store
	}
	Logger.Log.Info("using in-memory document store")
	return memory.NewStore()
}

func buildMediaStore() publish.MediaStore {
	if account := os.Getenv("MEDIA_UPLOAD_ACCOUNT"); account != "" {
		return publish.NewUnsignedMediaStore(account, "unsigned_posts", "posts")
	}
	if bucket := os.Getenv("MEDIA_S3_BUCKET"); bucket != "" {
		store, err := publish.NewS3MediaStore(bucket, "posts")
		if err != nil {
			Logger.Log.Fatalf("failed to initialize s3 media store: %v", err)
		}
		return store
	}
	Logger.Log.Warn("no media store configured, uploads will be faked")
	return &publish.FakeMediaStore{}
}

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	Flag.ParseFlags()

	if dotenv.IsProdEnv() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := memory.NewAuth()
	store := buildDocStore()

	manager := session.NewManager(auth, store)
	manager.Start(ctx)

	server := &bridge.Server{
		Session:  manager,
		Store:    store,
		Engine:   mutate.NewEngine(store),
		Pipeline: publish.NewPipeline(store, buildMediaStore()),
		Theme:    theme.NewStore(themeDir(), false),
	}

	Logger.Log.Info("bridge server starts up")
	server.NewRouter().Run(":8080")
}

func themeDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return dir + "/framez"
}
