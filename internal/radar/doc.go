// Package radar models dual-polarization radar volumes as they arrive from
// the ingest service and defines the field vocabulary shared by the hail
// retrievals.
//
// # Wire format
//
// Volumes are flat JSON documents, one message per volume scan:
//
//	{
//	  "id": "...", "radar_id": "KTLX", "band": "S", "time": "...",
//	  "latitude": 35.33, "longitude": -97.28, "altitude": 370,
//	  "levels": {"freezing_height_m": 3200, "neg20_height_m": 6400},
//	  "sweeps": [
//	    {"elevation": 0.5,
//	     "azimuths": [0, 1, ...], "ranges": [250, 500, ...],
//	     "fields": {"reflectivity": {"units": "dBZ", "data": [...]}, ...}}
//	  ]
//	}
//
// Field arrays are stored flat row-major, azimuth-major: data[az*nRange+rg].
// Missing gates are JSON null and decode to NaN; retrievals treat NaN as
// "no measurement", never as zero.
//
// # Field conventions
//
// Input fields and units:
//
//	reflectivity                 dBZ       horizontal reflectivity factor
//	differential_reflectivity    dB        Zdr, horizontal/vertical power ratio
//	specific_differential_phase  deg/km    Kdp
//	cross_correlation_ratio      unitless  co-polar correlation (rho-hv)
//	temperature                  degC      ambient temperature at the gate
//	gate_height                  m ASL     beam height at the gate
//
// gate_height and temperature are optional on the wire; EnsureGeometry
// derives them from the 4/3-earth beam model and the sounding levels when
// absent.
//
// # Sounding levels
//
// The 0 degC (melting level) and -20 degC heights come from sounding data.
// They either ride along on the volume message or are fetched per site from
// the sounding adapter. The height-weighted hail energy integral runs between
// the two, so a volume with no usable levels cannot produce SHI, MESH, or
// POSH and is rejected by that retrieval.
package radar
