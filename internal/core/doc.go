// Package core provides the business logic for loading CSV files into
// database tables.
//
// This package holds all domain logic independent of the CLI, the HTTP
// trigger, or any particular database driver. Database access goes through
// the [Catalog] interface, implemented per dialect in internal/warehouse.
//
// # Pipeline
//
// A load runs these stages in order:
//
//  1. Ingestion: [ReadDataset] samples the file, detects its encoding with
//     [DetectEncoding], decodes it, and parses it into a [Dataset]. Text
//     cells have non-breaking spaces replaced and surrounding whitespace
//     trimmed.
//  2. Inference: when the target table does not exist, [InferSchema]
//     derives a [TableSchema] from the observed values and the table is
//     created from it.
//  3. Reconciliation: [Reconcile] casts the dataset into the table's
//     declared column set and order. Date and timestamp columns go through
//     [CleanDate] and never fail; every other column fails loudly with a
//     [CastError].
//  4. Insert: the reconciled rows are appended through [Catalog.Append].
//
// [Loader] drives these stages and decides between create, truncate and
// append based on the catalog and the mapping's wipe flag.
//
// # Missing values
//
// Every cell is a pgtype nullable wrapper (pgtype.Text, pgtype.Int8,
// pgtype.Float8, pgtype.Bool). A wrapper with Valid=false is the one
// missing marker used for empty cells, absent columns and unparseable
// dates. Use [IsMissing] to test for it.
//
// # Error Handling
//
// Fatal errors are typed ([ConfigurationError], [InputError],
// [SchemaError], [CastError]) and wrapped with %w. [MapError] turns any of
// them into a [UserMessage] with a support code for the CLI and HTTP
// surfaces. Columns the table declares but the file lacks are reported as
// [PartialDataWarning] values and do not fail the load.
package core
