package api

import (
	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/tasks"
)

type Handler struct {
	registry   *tasks.Registry
	itemRepo   database.ItemRepository
	termRepo   database.TermRepository
	stateRepo  database.StateRepository
	taskSecret string
	version    string
}

func NewHandler(registry *tasks.Registry, itemRepo database.ItemRepository,
	termRepo database.TermRepository, stateRepo database.StateRepository,
	taskSecret string, version string) *Handler {
	return &Handler{
		registry:   registry,
		itemRepo:   itemRepo,
		termRepo:   termRepo,
		stateRepo:  stateRepo,
		taskSecret: taskSecret,
		version:    version,
	}
}
