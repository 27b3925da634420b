// Package tally keeps a personal-finance dataset as a single normalized,
// in-memory entity graph and maintains its derived monthly aggregates.
//
// The core functionalities include:
//   - Entity Store: collections of users, currencies, institutions, accounts,
//     categories, rules, statements and transactions, each an ordered list of
//     IDs plus a map from ID to entity.
//   - Localisation: converting values into the user's base currency using
//     monthly exchange-rate tables.
//   - Aggregation: per account, category (rolled up into every ancestor) and
//     currency monthly credits, debits and counts, plus per account and
//     currency month-end balances.
//   - Incremental maintenance: every command updates only the aggregates it
//     affects; [Recompute] rebuilds everything from scratch and
//     [State.Verify] checks both agree.
//   - Commands: a [State] is immutable, [State.Apply] returns a new State with
//     the commands applied, or an error and no change at all.
//
// The `tally` command-line tool is built on top of this package.
package tally
