package autologin

import (
	"context"
	"net/url"
)

type Phase string

const (
	PhaseProcessing Phase = "processing"
	PhaseSuccess    Phase = "success"
	PhaseFallback   Phase = "fallback"
	PhaseError      Phase = "error"
)

// Exchanger trades a one-time token for a session, returning where the
// browser should land next.
type Exchanger interface {
	Exchange(ctx context.Context, token, sessionID string) (string, error)
}

// Result is the terminal state of one auto-login run. Messages are
// user-facing and in Spanish; everything else is structured for the view.
type Result struct {
	Phase          Phase
	SessionID      string
	RedirectURL    string
	ManualLoginURL string
	Message        string
	Err            error
}

// Flow drives the auto-login page: processing → success | fallback | error.
// Transitions are one-directional; the only way back from fallback is a
// fresh Run, mirroring the user-triggered page reload.
type Flow struct {
	retryer   *Retryer
	exchanger Exchanger
	loginURL  string
}

func NewFlow(retryer *Retryer, exchanger Exchanger, loginURL string) *Flow {
	return &Flow{
		retryer:   retryer,
		exchanger: exchanger,
		loginURL:  loginURL,
	}
}

// Run executes the whole flow for one page load. A missing session id is a
// fatal input error: no network call is made and the result redirects to
// the login page.
func (f *Flow) Run(ctx context.Context, sessionID string) Result {
	if sessionID == "" {
		return Result{
			Phase:       PhaseError,
			RedirectURL: f.loginURL,
			Message:     "No se encontró la sesión de pago. Serás redirigido al inicio de sesión.",
		}
	}

	token, err := f.retryer.Run(ctx, sessionID)
	if err != nil {
		return f.fallback(sessionID, err)
	}

	redirectURL, err := f.exchanger.Exchange(ctx, token, sessionID)
	if err != nil {
		return f.fallback(sessionID, err)
	}

	return Result{
		Phase:       PhaseSuccess,
		SessionID:   sessionID,
		RedirectURL: redirectURL,
		Message:     "¡Tu cuenta está lista! Accediendo automáticamente…",
	}
}

// fallback keeps the session id in the manual login link so support can
// correlate the purchase.
func (f *Flow) fallback(sessionID string, err error) Result {
	return Result{
		Phase:          PhaseFallback,
		SessionID:      sessionID,
		ManualLoginURL: f.loginURL + "?session_id=" + url.QueryEscape(sessionID),
		Message:        "No pudimos iniciar tu sesión automáticamente. Usa el acceso manual o vuelve a intentarlo.",
		Err:            err,
	}
}
