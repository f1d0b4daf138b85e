package server

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/internal/site/leads"
	"github.com/autoinsurance/storefront/internal/site/pagectx"
	"github.com/autoinsurance/storefront/internal/site/render"
)

// handleQuote validates the ZIP from the quote form. A valid ZIP is
// recorded (best effort) and redirected to the quotes page; an invalid one
// re-renders the home page with the form error.
func (s *Server) handleQuote(pc *pagectx.PageContext) {
	ctx := pc.HTTPCtx
	raw := string(ctx.QueryArgs().Peek("zip"))

	zip, err := leads.NormalizeZIP(raw)
	if err != nil {
		pc.Logger.Debug("Rejected quote request", zap.String("zip", raw), zap.Error(err))
		pc.LeadOutcome = string(leads.OutcomeInvalid)
		s.metrics.RecordLead(pc.LeadOutcome)
		s.servePage(pc, pipeline.HomeKey, &render.ZIPForm{Value: raw, Error: leads.InvalidZIPMessage}, fasthttp.StatusUnprocessableEntity)
		return
	}

	outcome := leads.OutcomeDisabled
	if s.recorder != nil {
		reqCtx, cancel := pc.Context()
		outcome = s.recorder.Record(reqCtx, leads.Lead{
			ZIP:       zip,
			ClientIP:  pc.ClientIP,
			Referer:   string(ctx.Referer()),
			RequestID: pc.RequestID,
			At:        s.now().UTC(),
		})
		cancel()
	}
	pc.LeadOutcome = string(outcome)
	s.metrics.RecordLead(pc.LeadOutcome)

	target := leads.QuoteURL(s.configManager.GetConfig().Leads.QuotesPath, zip)
	pc.Logger.Info("Quote request accepted", zap.String("zip", zip), zap.String("outcome", string(outcome)))

	ctx.Response.Header.Set("Location", target)
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetStatusCode(fasthttp.StatusSeeOther)
}
