package system

import (
	"time"

	"github.com/puppetbridge/server/internal/config"
	"github.com/puppetbridge/server/internal/core/system"
	"github.com/puppetbridge/server/internal/project"
	"github.com/puppetbridge/server/internal/viewer"
)

const (
	timePushEvery   = 5 * time.Second
	socialRotateGap = 10 * time.Second
)

// PushSystem drives the periodic outbound traffic: coin accrual, clock
// updates, and the round-robin social refresh.
type PushSystem struct {
	cfg     config.EarnConfig
	viewers *viewer.Registry
	project *project.Projector

	sinceEarn   time.Duration
	sinceTime   time.Duration
	sinceSocial time.Duration
}

func NewPushSystem(cfg config.EarnConfig, viewers *viewer.Registry, project *project.Projector) *PushSystem {
	return &PushSystem{cfg: cfg, viewers: viewers, project: project}
}

func (s *PushSystem) Phase() system.Phase { return system.PhasePush }

func (s *PushSystem) Update(dt time.Duration) {
	s.sinceEarn += dt
	s.sinceTime += dt
	s.sinceSocial += dt

	if s.sinceEarn >= s.cfg.Interval {
		s.sinceEarn = 0
		for _, v := range s.viewers.Earn(s.cfg.Amount) {
			s.project.SendEarned(v)
		}
		s.viewers.Save()
	}
	if s.sinceTime >= timePushEvery {
		s.sinceTime = 0
		s.project.SendTime()
	}
	if s.sinceSocial >= socialRotateGap {
		s.sinceSocial = 0
		s.project.RotateSocial()
	}
}
