package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/logomigrator/internal/cache"
	"github.com/jo-hoe/logomigrator/internal/common"
	"github.com/jo-hoe/logomigrator/internal/database"
	"github.com/jo-hoe/logomigrator/internal/fetcher"
	"github.com/jo-hoe/logomigrator/internal/imageprocessing"
	"github.com/jo-hoe/logomigrator/internal/storage"
)

// Fetcher downloads a source image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Source, error)
}

// FailureReporter is notified about every entry that could not be migrated.
type FailureReporter interface {
	ReportFailure(entry, stage string, err error)
}

type CoreService struct {
	config    *ServiceConfig
	fetcher   Fetcher
	original  *imageprocessing.CommandInvoker
	thumbnail *imageprocessing.CommandInvoker
	store     storage.ObjectStore
	records   database.RecordUpdater
	reporter  FailureReporter
	cache     *cache.Cache
	newID     func() (string, error)
}

// NewCoreService wires the backends named in config. reporter may be nil.
func NewCoreService(ctx context.Context, config *ServiceConfig, reporter FailureReporter) (*CoreService, error) {
	var downloadCache *cache.Cache
	var fetcherCache fetcher.Cache
	if config.Cache.Address != "" {
		c, err := cache.NewRedisCache(ctx, config.Cache)
		if err != nil {
			slog.Warn("download cache unavailable, continuing without it", "address", config.Cache.Address, "error", err)
		} else {
			downloadCache = c
			fetcherCache = c
			slog.Info("download cache enabled", "address", config.Cache.Address)
			if config.Cache.FlushOnStart {
				if err := c.Flush(ctx); err != nil {
					slog.Warn("failed to flush download cache", "error", err)
				} else {
					slog.Info("download cache flushed", "namespace", c.Namespace)
				}
			}
		}
	}

	store, err := storage.NewObjectStore(ctx, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}
	slog.Info("object storage initialized", "type", config.Storage.Type, "bucket", config.Storage.Bucket)

	records, err := database.NewRecordUpdater(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	service, err := newCoreService(config, fetcher.NewFetcher(config.Fetcher, fetcherCache), store, records, reporter)
	if err != nil {
		return nil, err
	}
	service.cache = downloadCache
	return service, nil
}

func newCoreService(config *ServiceConfig, f Fetcher, store storage.ObjectStore, records database.RecordUpdater, reporter FailureReporter) (*CoreService, error) {
	original, err := imageprocessing.NewCommandInvokerFromConfig("original", imageprocessing.DefaultRegistry, config.Variants.Original)
	if err != nil {
		return nil, fmt.Errorf("failed to build original pipeline: %w", err)
	}
	thumbnail, err := imageprocessing.NewCommandInvokerFromConfig("thumbnail", imageprocessing.DefaultRegistry, config.Variants.Thumbnail)
	if err != nil {
		return nil, fmt.Errorf("failed to build thumbnail pipeline: %w", err)
	}

	return &CoreService{
		config:    config,
		fetcher:   f,
		original:  original,
		thumbnail: thumbnail,
		store:     store,
		records:   records,
		reporter:  reporter,
		newID:     storage.NewObjectID,
	}, nil
}

// Run migrates every configured logo in order. A failing entry is logged and
// the run continues with the next one. Once ctx is done the remaining entries
// are skipped.
func (service *CoreService) Run(ctx context.Context) *Report {
	logos := service.config.Logos
	report := &Report{Results: make([]Result, 0, len(logos))}
	start := time.Now()

	slog.Info("starting logo migration", "logos", len(logos))

	for i, logo := range logos {
		if ctx.Err() != nil {
			slog.Warn("migration cancelled", "remaining", len(logos)-i, "error", ctx.Err())
			for _, skipped := range logos[i:] {
				report.Results = append(report.Results, Result{Entry: skipped, Status: StatusSkipped})
			}
			break
		}

		slog.Info("processing logo", "name", logo.Name, "id", logo.ID, "position", i+1, "total", len(logos))
		result := service.processLogo(ctx, logo)
		report.Results = append(report.Results, result)

		if result.Err != nil {
			slog.Error("failed to migrate logo",
				"name", logo.Name,
				"stage", result.Stage,
				"error_kind", common.ErrorKind(result.Err),
				"error", result.Err)
			if service.reporter != nil {
				service.reporter.ReportFailure(logo.Name, result.Stage, result.Err)
			}
			continue
		}

		slog.Info("logo migrated",
			"name", logo.Name,
			"image_url", result.ImageURL,
			"thumbnail_url", result.ThumbnailURL)
	}

	slog.Info("logo migration finished",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"skipped", report.Skipped(),
		"duration", time.Since(start).Round(time.Millisecond).String())
	return report
}

func (service *CoreService) processLogo(ctx context.Context, logo LogoEntry) Result {
	result := Result{Entry: logo, Status: StatusFailed}
	fail := func(stage string, err error) Result {
		result.Stage = stage
		result.Err = err
		return result
	}

	source, err := service.fetcher.Fetch(ctx, logo.URL)
	if err != nil {
		return fail(StageFetch, err)
	}
	slog.Debug("downloaded logo", "name", logo.Name, "mime_type", source.MimeType, "bytes", len(source.Data))

	original, err := service.original.Execute(source.Data)
	if err != nil {
		return fail(StageProcessOriginal, err)
	}
	thumbnail, err := service.thumbnail.Execute(source.Data)
	if err != nil {
		return fail(StageProcessThumbnail, err)
	}

	id, err := service.newID()
	if err != nil {
		return fail(StageGenerateID, err)
	}
	result.ObjectID = id

	slog.Debug("uploading original", "name", logo.Name, "bytes", len(original))
	imageURL, err := service.store.Upload(ctx, storage.OriginalPath(id), original, storage.ContentTypePNG)
	if err != nil {
		return fail(StageUploadOriginal, err)
	}
	result.ImageURL = imageURL

	slog.Debug("uploading thumbnail", "name", logo.Name, "bytes", len(thumbnail))
	thumbnailURL, err := service.store.Upload(ctx, storage.ThumbnailPath(id), thumbnail, storage.ContentTypePNG)
	if err != nil {
		return fail(StageUploadThumbnail, err)
	}
	result.ThumbnailURL = thumbnailURL

	if err := service.records.UpdateImageURLs(ctx, logo.ID, imageURL, thumbnailURL); err != nil {
		return fail(StageUpdateRecord, err)
	}

	result.Status = StatusSucceeded
	return result
}

func (service *CoreService) Close() error {
	if service.cache != nil {
		return service.cache.Close()
	}
	return nil
}
