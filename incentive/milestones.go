package incentive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"svcadmin/model"
)

// DefaultMilestones apply when no milestones file is present.
var DefaultMilestones = []model.Milestone{
	{Key: "redeem-10", Threshold: 10, BonusCents: 2000, Description: "10 coupons redeemed"},
	{Key: "redeem-25", Threshold: 25, BonusCents: 5000, Description: "25 coupons redeemed"},
	{Key: "redeem-50", Threshold: 50, BonusCents: 10000, Description: "50 coupons redeemed"},
}

type milestonesFile struct {
	Milestones []model.Milestone `yaml:"milestones"`
}

// LoadMilestones reads milestones from a YAML file of the form
//
//	milestones:
//	  - key: redeem-10
//	    threshold: 10
//	    bonusCents: 2000
//
// A missing file yields DefaultMilestones. The result is sorted by threshold.
func LoadMilestones(path string) ([]model.Milestone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cloneMilestones(DefaultMilestones), nil
		}
		return nil, fmt.Errorf("failed to read milestones file %s: %w", path, err)
	}

	var f milestonesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse milestones file %s: %w", path, err)
	}
	if err := validateMilestones(f.Milestones); err != nil {
		return nil, fmt.Errorf("milestones file %s: %w", path, err)
	}
	sort.SliceStable(f.Milestones, func(i, j int) bool {
		return f.Milestones[i].Threshold < f.Milestones[j].Threshold
	})
	return f.Milestones, nil
}

func validateMilestones(ms []model.Milestone) error {
	seen := make(map[string]bool, len(ms))
	for i := range ms {
		ms[i].Key = strings.TrimSpace(ms[i].Key)
		m := ms[i]
		switch {
		case m.Key == "":
			return fmt.Errorf("milestone #%d has no key", i+1)
		case seen[m.Key]:
			return fmt.Errorf("duplicate milestone key %q", m.Key)
		case m.Threshold <= 0:
			return fmt.Errorf("milestone %q needs a positive threshold", m.Key)
		case m.BonusCents <= 0:
			return fmt.Errorf("milestone %q needs a positive bonus", m.Key)
		}
		seen[m.Key] = true
	}
	return nil
}

func cloneMilestones(ms []model.Milestone) []model.Milestone {
	return append([]model.Milestone(nil), ms...)
}

// Milestones holds the active milestone list and can be swapped at runtime
// when the milestones file changes.
type Milestones struct {
	list atomic.Pointer[[]model.Milestone]
}

func NewMilestones(ms []model.Milestone) *Milestones {
	m := &Milestones{}
	m.Set(ms)
	return m
}

func (m *Milestones) Get() []model.Milestone {
	return *m.list.Load()
}

func (m *Milestones) Set(ms []model.Milestone) {
	cp := cloneMilestones(ms)
	m.list.Store(&cp)
}

// Reload replaces the list from path. On error the previous list stays.
func (m *Milestones) Reload(path string) error {
	ms, err := LoadMilestones(path)
	if err != nil {
		return err
	}
	m.Set(ms)
	zap.S().Infof("Loaded %d milestone(s) from %s", len(ms), path)
	return nil
}

// Next returns the lowest milestone whose threshold is above redeemed.
func Next(ms []model.Milestone, redeemed int) *model.Milestone {
	var next *model.Milestone
	for i := range ms {
		if ms[i].Threshold > redeemed && (next == nil || ms[i].Threshold < next.Threshold) {
			m := ms[i]
			next = &m
		}
	}
	return next
}
