package trips

import "time"

// Driver son los datos para dar de alta un chofer nuevo.
type Driver struct {
	Nombre          string
	Apellido        string
	DNI             string
	FechaNacimiento time.Time
}

// Vehicle son los datos para dar de alta un móvil nuevo.
type Vehicle struct {
	Marca  string
	Modelo string
	Anio   *int64
}

// Trip es un registro de viaje ya interpretado.
type Trip struct {
	Fecha         *time.Time
	OrigenID      *int64
	Destino       string
	Producto      string
	TNPulpable    float64
	TNAserrable   float64
	TNChip        float64
	SinActividad  bool
	Motivo        *string
	Observaciones *string

	// CUIT del chofer; vacío => se busca por nombre (ChoferName).
	CUIT       string
	ChoferName string
	Driver     Driver

	// Patente vacía => sin móvil identificable.
	Patente        string
	PatenteFoundIn string
	PatenteRaw     any
	Vehicle        Vehicle
}

// Build interpreta los campos de un registro.
func Build(f Fields, destinos map[string]string) Trip {
	t := Trip{
		Destino:       MapDestino(orEmpty(f.First("Destino", "destino")), destinos),
		Producto:      f.String("Producto", "producto"),
		TNPulpable:    NumericField(f, PulpableKeys, 0),
		TNAserrable:   NumericField(f, AserrableKeys, 0),
		TNChip:        NumericField(f, ChipKeys, 0),
		SinActividad:  truthy(f.First("Sin_Actividad", "sin_actividad")),
		Motivo:        f.optionalString("Motivo_Sin_Actividad", "motivo"),
		Observaciones: f.optionalString("Observaciones", "observaciones"),
		CUIT:          ExtractCUIT(f),
		ChoferName:    f.String("Chofer"),
	}

	if d, ok := ParseFecha(f.First("Fecha", "fecha")); ok {
		t.Fecha = &d
	}
	if id, ok := OrigenID(f); ok {
		t.OrigenID = &id
	}

	t.Driver = Driver{
		Nombre:          f.String("Chofer_nombre", "Chofer", "Nombre"),
		Apellido:        f.String("Chofer_apellido"),
		DNI:             f.String("DNI"),
		FechaNacimiento: BirthDate(f),
	}
	t.Vehicle = Vehicle{
		Marca:  f.String("Marca", "marca"),
		Modelo: f.String("Modelo", "modelo"),
	}
	if v := f.First("Anio", "anio", "Año"); v != nil {
		if n, ok := toInt64(v); ok {
			t.Vehicle.Anio = &n
		}
	}

	t.PatenteRaw = f.First("Patente", "patente")
	t.Patente, t.PatenteFoundIn = ExtractPatente(f)
	if t.Patente == "" {
		t.Patente = NormalizePatente(t.PatenteRaw)
	}
	return t
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
