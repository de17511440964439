// Package dataset holds the tabular model behind every uploaded file.
//
// A Dataset wraps a gota dataframe whose columns carry one inferred type
// each. The package covers the whole life of a file:
//
//   - Parsing: CSV (BOM-stripped, invalid UTF-8 replaced) and XLSX (first
//     sheet, ragged rows padded) into a typed dataframe.
//   - Inspection: leading-row previews, per-column kind and missing counts,
//     duplicate counts.
//   - Cleaning: exact-duplicate removal and mean imputation for numeric
//     columns.
//   - Selection: restricting the dataset to an ordered subset of columns.
//   - Charting: plot data for the first four numeric columns.
//   - Export: CSV or XLSX encoding and the matching download name and
//     content type.
//
// Missing cells are empty strings or one of the tokens in MissingTokens.
// They compare equal to each other during duplicate detection and are
// written back as empty cells on export.
//
// A Dataset is not safe for concurrent use; callers serialize access.
package dataset
