// Package domain models next-day wildfire spread data.
//
// # Data Source
//
// Environmental raster tiles come from the "Next Day Wildfire Spread" research
// dataset, which aggregates satellite-derived observations over the continental
// US into fixed-size square patches. Each tile carries one grid per feature:
//
//	elevation    terrain elevation in meters
//	th           wind direction, degrees clockwise from north
//	vs           wind speed
//	tmmn, tmmx   min/max temperature in Kelvin
//	sph          specific humidity
//	pr           precipitation in mm
//	pdsi         Palmer Drought Severity Index
//	NDVI         Normalized Difference Vegetation Index
//	population   population density
//	erc          NFDRS energy release component, BTU/sqft
//	PrevFireMask fire mask observed on the current day
//	FireMask     fire mask observed the following day (the label)
//
// Fire-mask grids use a three-value convention: -1 = no data (cloud cover or
// missing satellite pass), 0 = no fire, 1 = fire. Mask grids are never
// normalized so these sentinels survive the pipeline intact.
//
// # Feature Keys
//
// Time-sequenced exports name variables "elevation_0", "elevation_1", ... so
// every step of a sequence shares the base variable's normalization statistics.
// [BaseKey] strips the numeric suffix by extracting the leading alphabetic run.
//
// # Normalization Statistics
//
// Per-feature (clip_min, clip_max, mean, std) tuples were computed on the
// uncropped training split, clipping at the 0.1 and 99.9 percentiles except
// where physical bounds apply (precipitation and wind speed cannot be
// negative, humidity lies in [0,1], wind direction in [0,360]). See
// [DefaultStats].
//
// # Resource Zones
//
// Independently of the raster pipeline, county-level zones carry firefighting
// capacities and a four-level fire-risk label ordered by ascending priority:
// Safe Zone < At Risk Day 3 < Critical Day 2 < Critical Day 1. The
// reallocation engine moves fractions of capacity from lower-priority zones
// toward their nearest higher-priority counterparts and records each move as
// a [TransferEvent].
package domain
