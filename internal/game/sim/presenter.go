package sim

import "go.uber.org/zap"

// LogPresenter records presentation requests as debug log entries in place
// of animation and audio playback. It implements enemy.Presenter.
type LogPresenter struct {
	logger *zap.Logger
}

// NewLogPresenter tags every entry with the entity ID.
func NewLogPresenter(logger *zap.Logger, entity string) *LogPresenter {
	return &LogPresenter{logger: logger.With(zap.String("entity", entity))}
}

// PlayTrigger logs an animation trigger request.
func (p *LogPresenter) PlayTrigger(name string) {
	p.logger.Debug("play trigger", zap.String("trigger", name))
}

// PlayClip logs a sound request.
func (p *LogPresenter) PlayClip(name string) {
	p.logger.Debug("play clip", zap.String("clip", name))
}
