package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// dateLayout es el formato con el que se escriben las columnas DATE.
const dateLayout = "2006-01-02"

// Personal son los datos de alta de un chofer.
type Personal struct {
	Nombre          string
	Apellido        string
	DNI             string
	CUIT            string
	EmpresaID       *int64
	FechaNacimiento time.Time
}

// Movil son los datos de alta de un vehículo.
type Movil struct {
	EmpresaID *int64
	Patente   string
	Marca     string
	Modelo    string
	Anio      *int64
}

// GetOrCreatePredio busca el predio por id y, si no existe, lo crea con ese
// mismo id y nombre "Predio {id}". created indica si hubo alta.
func (t *Tx) GetOrCreatePredio(ctx context.Context, id int64) (predioID int64, created bool, err error) {
	got, ok, err := t.lookupID(ctx, "SELECT id FROM "+TablePredios+" WHERE id = ?", id)
	if err != nil {
		return 0, false, fmt.Errorf("store: predio %d: %w", id, err)
	}
	if ok {
		return got, false, nil
	}
	if err := t.exec(ctx, "INSERT INTO "+TablePredios+" (id, nombre) VALUES (?, ?)",
		id, "Predio "+strconv.FormatInt(id, 10)); err != nil {
		return 0, false, fmt.Errorf("store: crear predio %d: %w", id, err)
	}
	return id, true, nil
}

// GetOrCreatePersonal busca el chofer por CUIT y, si no existe, lo crea.
// p.CUIT no puede ser vacío; para choferes sin CUIT usar CreatePersonal.
func (t *Tx) GetOrCreatePersonal(ctx context.Context, p Personal) (id int64, created bool, err error) {
	if p.CUIT == "" {
		return 0, false, fmt.Errorf("store: personal: CUIT vacío")
	}
	got, ok, err := t.lookupID(ctx, "SELECT id FROM "+TablePersonal+" WHERE cuit = ?", p.CUIT)
	if err != nil {
		return 0, false, fmt.Errorf("store: personal cuit %s: %w", p.CUIT, err)
	}
	if ok {
		return got, false, nil
	}
	id, err = t.CreatePersonal(ctx, p)
	return id, err == nil, err
}

// FindPersonalByName busca un chofer por nombre y apellido exactos.
func (t *Tx) FindPersonalByName(ctx context.Context, nombre, apellido string) (int64, bool, error) {
	id, ok, err := t.lookupID(ctx,
		"SELECT id FROM "+TablePersonal+" WHERE nombre = ? AND apellido = ?", nombre, apellido)
	if err != nil {
		return 0, false, fmt.Errorf("store: personal %q %q: %w", nombre, apellido, err)
	}
	return id, ok, nil
}

// CreatePersonal da de alta un chofer (baja=false).
func (t *Tx) CreatePersonal(ctx context.Context, p Personal) (int64, error) {
	fecha := p.FechaNacimiento
	if fecha.IsZero() {
		fecha = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	id, err := t.insert(ctx,
		"INSERT INTO "+TablePersonal+" (nombre, apellido, dni, cuit, baja, empresa_id, fecha_nacimiento) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.Nombre, p.Apellido, p.DNI, p.CUIT, false, nullable(p.EmpresaID), fecha.Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("store: crear personal: %w", err)
	}
	return id, nil
}

// GetOrCreateMovil busca el móvil por patente y, si no existe, lo crea.
func (t *Tx) GetOrCreateMovil(ctx context.Context, m Movil) (id int64, created bool, err error) {
	got, ok, err := t.lookupID(ctx, "SELECT id FROM "+TableMovil+" WHERE patente = ?", m.Patente)
	if err != nil {
		return 0, false, fmt.Errorf("store: movil %s: %w", m.Patente, err)
	}
	if ok {
		return got, false, nil
	}
	id, err = t.insert(ctx,
		"INSERT INTO "+TableMovil+" (empresa_id, patente, marca, modelo, anio, baja) VALUES (?, ?, ?, ?, ?, ?)",
		nullable(m.EmpresaID), m.Patente, m.Marca, m.Modelo, nullable(m.Anio), false,
	)
	if err != nil {
		return 0, false, fmt.Errorf("store: crear movil %s: %w", m.Patente, err)
	}
	return id, true, nil
}

// nullable pasa un puntero nil como NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
