package telephony

import (
	"fmt"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// CallRouter points the café number's voice URL either at the AI agent
// webhook or at a static fallback.
type CallRouter struct {
	api         TwilioAPI
	numberSID   string
	webhookURL  string
	fallbackURL string
	state       *RouteState
	logger      *zap.Logger
}

func NewCallRouter(api TwilioAPI, numberSID, webhookURL, fallbackURL string, state *RouteState, logger *zap.Logger) *CallRouter {
	return &CallRouter{
		api:         api,
		numberSID:   numberSID,
		webhookURL:  webhookURL,
		fallbackURL: fallbackURL,
		state:       state,
		logger:      logger,
	}
}

func (r *CallRouter) Enabled() bool {
	return r.state.Enabled()
}

// Route updates Twilio and then the persisted state. When Twilio fails the
// state is left alone.
func (r *CallRouter) Route(useWebhook bool) (string, error) {
	newURL := r.fallbackURL
	if useWebhook {
		newURL = r.webhookURL
	}
	if newURL == "" {
		return "", fmt.Errorf("no voice URL configured for useWebhook=%t", useWebhook)
	}

	params := &openapi.UpdateIncomingPhoneNumberParams{}
	params.SetVoiceUrl(newURL)
	params.SetVoiceMethod("POST")

	if _, err := r.api.UpdateIncomingPhoneNumber(r.numberSID, params); err != nil {
		return "", fmt.Errorf("updating voice url: %w", err)
	}
	r.logger.Info("call route updated", zap.Bool("useWebhook", useWebhook), zap.String("voiceUrl", newURL))

	if err := r.state.Set(useWebhook); err != nil {
		r.logger.Error("persisting call route", zap.Bool("useWebhook", useWebhook), zap.Error(err))
	}
	return newURL, nil
}
