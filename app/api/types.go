package api

import (
	"postpilot/app/content"
	"postpilot/app/database"
	"postpilot/app/pipeline"
	"postpilot/app/predict"
	"postpilot/app/schedule"
	"postpilot/app/scoring"
)

type Handler struct {
	users     database.UserRepository
	items     database.ItemRepository
	drafts    database.DraftRepository
	profiles  *content.ProfileCache
	runner    *pipeline.Runner
	engine    *scoring.Engine
	predictor *predict.Predictor
	optimizer *schedule.Optimizer
}

func NewHandler(users database.UserRepository, items database.ItemRepository, drafts database.DraftRepository,
	profiles *content.ProfileCache, runner *pipeline.Runner, engine *scoring.Engine,
	predictor *predict.Predictor, optimizer *schedule.Optimizer) *Handler {
	return &Handler{
		users:     users,
		items:     items,
		drafts:    drafts,
		profiles:  profiles,
		runner:    runner,
		engine:    engine,
		predictor: predictor,
		optimizer: optimizer,
	}
}
