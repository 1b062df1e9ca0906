// Package domain models municipal boundaries, monthly temperature values and
// the rules that turn per-month zonal means into one value per municipality.
//
// # Data Sources
//
// Municipal boundaries come from the IBGE "Malha Municipal" shapefile
// (BR_Municipios_2024.shp). The attribute columns used are:
//
//	CD_MUN    7-digit IBGE municipality code  →  codigo_ibge
//	NM_MUN    municipality name                →  municipio
//	SIGLA_UF  two-letter state code            →  estado
//
// The shapefile ships in SIRGAS 2000 geographic coordinates (EPSG:4674) and is
// reprojected to WGS 84 (EPSG:4326) on load, the reference system of the
// WorldClim rasters.
//
// Temperature grids are WorldClim 2.1 monthly average temperature
// (wc2.1_30s_tavg_01 … wc2.1_30s_tavg_12), one single-band grid per month.
//
// # Unit Encoding
//
// Some distributions of the same grids store tenths of a degree Celsius as
// integers (215 = 21.5 °C) instead of plain °C. The encoding is not declared in
// the file, so it is inferred per raster from the largest valid value:
//
//	max > 80  →  °C × 10, multiply by 0.1
//	otherwise →  °C, multiply by 1.0
//
// 80 °C is well above any near-surface monthly mean on Earth, so a raster in
// plain °C never crosses it. A caller-supplied factor always wins over the
// inference. See [ScaleDetector].
//
// # Undefined Values
//
// A municipality that no valid pixel intersects has no temperature for that
// month. This is modelled as [None], never as zero or NaN, and it survives
// every stage: the annual combiner skips undefined months and the CSV writes
// an empty field. See [Option] and [Combiner].
//
// # Plausibility
//
// After scaling, monthly means outside [-20 °C, 50 °C] are treated as
// undefined. Values outside that window come from misread encodings or
// corrupted tiles rather than real climate. See [PlausibleRange].
package domain
