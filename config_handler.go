package main

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"svcadmin/config"
	"svcadmin/incentive"
	"svcadmin/respond"
)

// GetConfigHandler returns the current settings. Secrets and the DSN are
// never serialized.
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, config.GetConfig())
	}
}

// SaveConfigHandler stores the runtime settings and reloads milestones when
// the milestones file changes.
func SaveConfigHandler(ms *incentive.Milestones) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		newCfg := config.GetConfig()
		if err := respond.Decode(r, &newCfg); err != nil {
			respond.Error(w, err)
			return
		}
		newCfg.CurrencySymbol = strings.TrimSpace(newCfg.CurrencySymbol)
		if newCfg.CouponExpiryDays < 0 || newCfg.CouponIncentiveCents < 0 {
			respond.Error(w, respond.BadRequest("coupon defaults must not be negative"))
			return
		}
		if err := ensureFolder(newCfg.StatementDir); err != nil {
			respond.Error(w, respond.BadRequest(err.Error()))
			return
		}

		milestonesChanged := newCfg.MilestonesFile != "" && newCfg.MilestonesFile != config.GetConfig().MilestonesFile
		if milestonesChanged {
			if _, err := incentive.LoadMilestones(newCfg.MilestonesFile); err != nil {
				respond.Error(w, respond.BadRequest(err.Error()))
				return
			}
		}

		if err := config.SaveConfig(newCfg); err != nil {
			zap.S().Errorf("Error saving config: %v", err)
			respond.Message(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		if milestonesChanged {
			if err := ms.Reload(newCfg.MilestonesFile); err != nil {
				zap.S().Warnf("Failed to reload milestones: %v", err)
			}
		}
		respond.Message(w, http.StatusOK, "settings saved")
	}
}

// ensureFolder accepts an empty path, an existing directory, or a path it
// can create.
func ensureFolder(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return errors.New("cannot create folder: " + path)
			}
			return nil
		}
		zap.S().Errorf("Error checking folder path: %v", err)
		return errors.New("failed to check folder path")
	}
	if !info.IsDir() {
		return errors.New("path is not a folder: " + path)
	}
	return nil
}
