package triagem

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/suashub/suashub/internal/app/system/metroline"
)

var stages = []metroline.Stage{{Key: "ABORDAGEM", Title: "Abordagem"}, {Key: "ACOLHIMENTO", Title: "Acolhimento"}}

func TestDrafts_OwnerScoped(t *testing.T) {
	s := NewDrafts()
	d, err := s.Create("u1", "João", "poprua", "ABORDAGEM")
	require.NoError(t, err)

	_, err = s.Get(d.ID, "u2")
	require.ErrorIs(t, err, ErrDraftNotFound)
	require.Empty(t, s.List("u2"))
	require.Len(t, s.List("u1"), 1)
	require.ErrorIs(t, s.Delete(d.ID, "u2"), ErrDraftNotFound)
	require.NoError(t, s.Delete(d.ID, "u1"))
	require.Empty(t, s.List("u1"))
}

func TestDrafts_Limit(t *testing.T) {
	s := NewDrafts()
	for i := 0; i < maxDraftsPerOwner; i++ {
		_, err := s.Create("u1", "x", "poprua", "ABORDAGEM")
		require.NoError(t, err)
	}
	_, err := s.Create("u1", "x", "poprua", "ABORDAGEM")
	require.ErrorIs(t, err, ErrTooManyDrafts)
	_, err = s.Create("u2", "x", "poprua", "ABORDAGEM")
	require.NoError(t, err)
}

func TestDrafts_ListNewestFirst(t *testing.T) {
	s := NewDrafts()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	a, _ := s.Create("u1", "a", "poprua", "ABORDAGEM")
	b, _ := s.Create("u1", "b", "poprua", "ABORDAGEM")

	got := s.List("u1")
	require.Equal(t, []string{b.ID, a.ID}, []string{got[0].ID, got[1].ID})
}

func TestDrafts_SubmitterRecordsEvent(t *testing.T) {
	s := NewDrafts()
	d, _ := s.Create("u1", "João", "poprua", "ABORDAGEM")
	ref, err := s.AddReferral(d.ID, "u1", metroline.Referral{Kind: metroline.KindLocalNetwork, Destino: "Centro POP"})
	require.NoError(t, err)
	require.Equal(t, int64(1), ref.ID)

	sub := s.Submitter(d.ID, "u1", "Rita", stages)
	err = sub.Submit(context.Background(), metroline.Payload{
		Etapa:              "ACOLHIMENTO",
		Obs:                " <i>aceitou</i> acolhimento ",
		EncaminhamentosIDs: []int64{ref.ID},
	})
	require.NoError(t, err)

	got, _ := s.Get(d.ID, "u1")
	evs := got.Events["ACOLHIMENTO"]
	require.Len(t, evs, 1)
	require.Equal(t, "aceitou acolhimento", evs[0].Obs)
	require.Equal(t, "Rita", evs[0].Responsavel)
	require.Equal(t, "Centro POP", evs[0].Referrals[0].Destino)
	require.Equal(t, "ABORDAGEM", got.EtapaAtual, "registering never moves the pointer")
}

func TestDrafts_SubmitterRejects(t *testing.T) {
	s := NewDrafts()
	d, _ := s.Create("u1", "João", "poprua", "ABORDAGEM")
	sub := s.Submitter(d.ID, "u1", "Rita", stages)

	err := sub.Submit(context.Background(), metroline.Payload{Etapa: "NOPE"})
	require.ErrorIs(t, err, ErrUnknownEtapa)

	err = sub.Submit(context.Background(), metroline.Payload{Etapa: "ABORDAGEM", EncaminhamentosIDs: []int64{9}})
	require.True(t, errors.Is(err, ErrUnknownReferral))

	got, _ := s.Get(d.ID, "u1")
	require.Empty(t, got.Events)
}

func TestDrafts_RegistrationLocalMode(t *testing.T) {
	s := NewDrafts()
	d, _ := s.Create("u1", "João", "poprua", "ABORDAGEM")
	_, _ = s.AddReferral(d.ID, "u1", metroline.Referral{Kind: metroline.KindLocalNetwork, Destino: "CAPS"})
	d, _ = s.Get(d.ID, "u1")

	reg := metroline.OpenRegistration(context.Background(), stages[0], nil, d.Referrals, nil)
	require.Len(t, reg.State().Candidates, 1)

	reg.SetForm(metroline.Form{Obs: "ok", Selected: []int64{1}})
	refreshed := 0
	err := reg.Submit(context.Background(), s.Submitter(d.ID, "u1", "Rita", stages), func(context.Context) error {
		refreshed++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)
	require.False(t, reg.State().Open)
}

func TestDrafts_ConcurrentSubmits(t *testing.T) {
	s := NewDrafts()
	d, _ := s.Create("u1", "João", "poprua", "ABORDAGEM")
	sub := s.Submitter(d.ID, "u1", "Rita", stages)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sub.Submit(context.Background(), metroline.Payload{Etapa: "ABORDAGEM", EncaminhamentosIDs: []int64{}})
		}()
	}
	wg.Wait()

	got, _ := s.Get(d.ID, "u1")
	evs := got.Events["ABORDAGEM"]
	require.Len(t, evs, 20)
	ids := map[int64]bool{}
	for _, ev := range evs {
		ids[ev.ID] = true
	}
	require.Len(t, ids, 20)
}

func TestDrafts_TakeIsExclusive(t *testing.T) {
	s := NewDrafts()
	d, err := s.Create("u1", "João", "poprua", "ABORDAGEM")
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	wins := make(chan Draft, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := s.Take(d.ID, "u1"); err == nil {
				wins <- got
			}
		}()
	}
	wg.Wait()
	close(wins)

	require.Len(t, wins, 1)
	_, err = s.AddReferral(d.ID, "u1", metroline.Referral{Kind: metroline.KindLocalNetwork, Destino: "CAPS"})
	require.ErrorIs(t, err, ErrDraftNotFound, "a claimed draft takes no more edits")
}

func TestDrafts_RestoreAfterTake(t *testing.T) {
	s := NewDrafts()
	d, err := s.Create("u1", "João", "poprua", "ABORDAGEM")
	require.NoError(t, err)
	_, err = s.AddReferral(d.ID, "u1", metroline.Referral{Kind: metroline.KindLocalNetwork, Destino: "CAPS"})
	require.NoError(t, err)

	_, err = s.Take(d.ID, "u2")
	require.ErrorIs(t, err, ErrDraftNotFound)

	taken, err := s.Take(d.ID, "u1")
	require.NoError(t, err)
	s.Restore(taken)

	next, err := s.AddReferral(d.ID, "u1", metroline.Referral{Kind: metroline.KindLocalNetwork, Destino: "CREAS"})
	require.NoError(t, err)
	require.EqualValues(t, 2, next.ID, "referral ids continue after restore")
}
