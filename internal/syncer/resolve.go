package syncer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dropDatabas3/viajes/internal/airtable"
	"github.com/dropDatabas3/viajes/internal/cache"
	"github.com/dropDatabas3/viajes/internal/store"
	"github.com/dropDatabas3/viajes/internal/trips"
)

type recordResult struct {
	viajeID int64
	updated bool
	skipped bool
}

// syncRecord resuelve predio, chofer y móvil del registro y escribe el
// viaje. Corre dentro del savepoint del registro.
func (s *Syncer) syncRecord(ctx context.Context, tx *store.Tx, cols map[string]bool, rec airtable.Record) (recordResult, error) {
	t := trips.Build(trips.Fields(fieldsOf(rec)), s.opts.Destinos)
	s.d.Log.Trace("record", rec.ID, t.Patente, t.CUIT, t.Destino)

	if t.Patente == "" {
		s.rep.emit(event{"warning": "missing_patente", "record_id": rec.ID, "raw": t.PatenteRaw, "found_in": t.PatenteFoundIn})
		s.d.Log.Warn("missing_patente", rec.ID)
	}

	var origenID *int64
	if t.OrigenID != nil {
		id, err := s.predio(ctx, tx, *t.OrigenID)
		if err != nil {
			return recordResult{}, err
		}
		origenID = &id
	}

	personalID, err := s.personal(ctx, tx, t)
	if err != nil {
		return recordResult{}, err
	}

	movilID, ok, err := s.movil(ctx, tx, rec.ID, t)
	if err != nil {
		return recordResult{}, err
	}
	if !ok {
		return recordResult{skipped: true}, nil
	}

	res, err := tx.UpsertViaje(ctx, cols, store.Viaje{
		RecordID:      rec.ID,
		MovilID:       movilID,
		ClienteID:     s.opts.EmpresaID,
		AreaID:        s.opts.AreaID,
		Fecha:         t.Fecha,
		OrigenID:      origenID,
		Destino:       t.Destino,
		Producto:      t.Producto,
		TNPulpable:    t.TNPulpable,
		TNAserrable:   t.TNAserrable,
		TNChip:        t.TNChip,
		SinActividad:  t.SinActividad,
		Motivo:        t.Motivo,
		Observaciones: t.Observaciones,
		PersonalID:    personalID,
	})
	if err != nil {
		return recordResult{}, err
	}
	return recordResult{viajeID: res.ID, updated: res.Updated}, nil
}

func (s *Syncer) predio(ctx context.Context, tx *store.Tx, id int64) (int64, error) {
	key := strconv.FormatInt(id, 10)
	if got, ok := s.d.Memo.Get(cache.KindPredio, key); ok {
		return got, nil
	}
	got, created, err := tx.GetOrCreatePredio(ctx, id)
	if err != nil {
		return 0, err
	}
	if created {
		s.d.Log.Info("predio_created", id)
	}
	s.d.Memo.Set(cache.KindPredio, key, got)
	return got, nil
}

// personal resuelve el chofer: por CUIT; si no hay, por nombre y apellido
// (separando el campo Chofer); si tampoco existe, lo da de alta sin CUIT.
func (s *Syncer) personal(ctx context.Context, tx *store.Tx, t trips.Trip) (*int64, error) {
	p := store.Personal{
		Nombre:          t.Driver.Nombre,
		Apellido:        t.Driver.Apellido,
		DNI:             t.Driver.DNI,
		CUIT:            t.CUIT,
		EmpresaID:       s.opts.EmpresaID,
		FechaNacimiento: t.Driver.FechaNacimiento,
	}

	if t.CUIT != "" {
		if id, ok := s.d.Memo.Get(cache.KindPersonal, "cuit:"+t.CUIT); ok {
			return &id, nil
		}
		id, _, err := tx.GetOrCreatePersonal(ctx, p)
		if err != nil {
			return nil, err
		}
		s.d.Memo.Set(cache.KindPersonal, "cuit:"+t.CUIT, id)
		return &id, nil
	}

	if t.ChoferName == "" {
		return nil, nil
	}
	nombre, apellido := trips.SplitChoferName(t.ChoferName)
	key := "name:" + nombre + "|" + apellido
	if id, ok := s.d.Memo.Get(cache.KindPersonal, key); ok {
		return &id, nil
	}
	id, found, err := tx.FindPersonalByName(ctx, nombre, apellido)
	if err != nil {
		return nil, err
	}
	if !found {
		if id, err = tx.CreatePersonal(ctx, p); err != nil {
			return nil, err
		}
		s.d.Log.Info("personal_created_without_cuit", nombre, apellido)
	}
	s.d.Memo.Set(cache.KindPersonal, key, id)
	return &id, nil
}

// movil resuelve el móvil por patente. Sin patente (o si falla el alta) usa
// un móvil placeholder si está habilitado; si no, ok=false y el registro se
// omite.
func (s *Syncer) movil(ctx context.Context, tx *store.Tx, recordID string, t trips.Trip) (id int64, ok bool, err error) {
	m := store.Movil{
		EmpresaID: s.opts.EmpresaID,
		Patente:   t.Patente,
		Marca:     t.Vehicle.Marca,
		Modelo:    t.Vehicle.Modelo,
		Anio:      t.Vehicle.Anio,
	}

	if t.Patente != "" {
		if got, hit := s.d.Memo.Get(cache.KindMovil, t.Patente); hit {
			return got, true, nil
		}
		got, _, merr := tx.GetOrCreateMovil(ctx, m)
		if merr == nil {
			s.d.Memo.Set(cache.KindMovil, t.Patente, got)
			return got, true, nil
		}
		s.rep.emit(event{"error": "movil_exception", "patente": t.Patente, "record_id": recordID, "message": merr.Error()})
		s.d.Log.Error("movil_exception", recordID, t.Patente, merr.Error())
	}

	if !s.opts.AllowPlaceholderMovil {
		s.rep.emit(event{"error": "missing_movil_id", "record_id": recordID, "patente": t.Patente})
		s.d.Log.Warn("missing_movil_id", recordID)
		return 0, false, nil
	}

	m.Patente = s.opts.PlaceholderPrefix + "-" + s.suffix()
	got, _, err := tx.GetOrCreateMovil(ctx, m)
	if err != nil {
		return 0, false, fmt.Errorf("placeholder movil %s: %w", m.Patente, err)
	}
	s.rep.emit(event{"info": "created_placeholder_movil", "patente": m.Patente, "record_id": recordID, "movil_id": got})
	s.d.Log.Info("created_placeholder_movil", m.Patente, recordID)
	return got, true, nil
}
