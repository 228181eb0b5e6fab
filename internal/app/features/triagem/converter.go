// internal/app/features/triagem/converter.go
package triagem

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	casostore "github.com/suashub/suashub/internal/app/store/casos"
	encaminhamentostore "github.com/suashub/suashub/internal/app/store/encaminhamentos"
	registrostore "github.com/suashub/suashub/internal/app/store/registros"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/app/system/txn"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleConverter handles POST /triagem/{draftId}/converter: the draft
// becomes a stored case with its referrals and events. The draft is claimed
// before writing and put back if the write fails.
func (h *Handler) HandleConverter(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.loadDraft(w, r); !ok {
		return
	}
	user := currentUser(r)

	d, err := h.Drafts.Take(chi.URLParam(r, "draftId"), user.ID)
	if err != nil {
		// A concurrent convert or discard got here first.
		h.ErrLog.NotFound(w, r, "Rascunho já convertido ou descartado.", "/triagem")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "convert draft")
	defer cancel()

	casoID, err := convertDraft(ctx, h.DB, h.Log, d, user.ID)
	if err != nil {
		h.Drafts.Restore(d)
		h.ErrLog.LogServerError(w, r, "convert draft failed", err, "Não foi possível converter o rascunho em caso.", draftURL(d.ID))
		return
	}
	h.Audit.TriagemConvertida(ctx, r, user.ID, casoID, d.ID, countEvents(d))
	h.Log.Info("triagem draft converted", zap.String("draft_id", d.ID), zap.Int64("caso_id", casoID))

	redirect(w, r, "/casos/"+strconv.FormatInt(casoID, 10))
}

// convertDraft writes the case, its referrals and its events in one
// transaction when the deployment supports it. Event snapshots are remapped
// to the stored referral ids.
func convertDraft(ctx context.Context, db *mongo.Database, log *zap.Logger, d Draft, responsavelID string) (int64, error) {
	casos := casostore.New(db)
	encs := encaminhamentostore.New(db)
	regs := registrostore.New(db)

	type stageEvent struct {
		etapa string
		ev    metroline.Event
	}
	var events []stageEvent
	for etapa, evs := range d.Events {
		for _, ev := range evs {
			events = append(events, stageEvent{etapa: etapa, ev: ev})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].ev.DataHora.Equal(events[j].ev.DataHora) {
			return events[i].ev.ID < events[j].ev.ID
		}
		return events[i].ev.DataHora.Before(events[j].ev.DataHora)
	})

	var casoID int64
	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
		c, err := casos.Create(ctx, models.Caso{
			Nome:       d.Nome,
			Programa:   d.Programa,
			EtapaAtual: d.EtapaAtual,
			Status:     casostore.StatusAtivo,
		})
		if err != nil {
			return err
		}

		stored := make(map[int64]models.Encaminhamento, len(d.Referrals))
		for _, ref := range d.Referrals {
			e, err := encs.Create(ctx, referralModel(c.ID, ref))
			if err != nil {
				return err
			}
			stored[ref.ID] = e
		}

		for _, se := range events {
			snapshot := make([]models.Encaminhamento, 0, len(se.ev.Referrals))
			for _, ref := range se.ev.Referrals {
				if e, ok := stored[ref.ID]; ok {
					snapshot = append(snapshot, e)
				}
			}
			if _, err := regs.Create(ctx, models.Registro{
				CasoID:          c.ID,
				Etapa:           se.etapa,
				ResponsavelID:   responsavelID,
				ResponsavelNome: se.ev.Responsavel,
				DataHora:        se.ev.DataHora,
				Obs:             se.ev.Obs,
				Encaminhamentos: snapshot,
			}); err != nil {
				return err
			}
		}
		casoID = c.ID
		return nil
	})
	return casoID, err
}

func countEvents(d Draft) int {
	n := 0
	for _, evs := range d.Events {
		n += len(evs)
	}
	return n
}

func referralModel(casoID int64, ref metroline.Referral) models.Encaminhamento {
	e := models.Encaminhamento{
		CasoID: casoID,
		Tipo:   string(ref.Kind),
		Status: ref.Status,
	}
	switch ref.Kind {
	case metroline.KindInterMunicipal:
		e.MunicipioOrigemID = ref.OrigemID
		e.MunicipioDestinoID = ref.DestinoID
	default:
		e.Tipo = models.EncaminhamentoRedeLocal
		e.Destino = ref.Destino
	}
	return e
}
