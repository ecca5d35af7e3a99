/*
Package monetary implements a currency registry and money arithmetic.
It combines arbitrary-precision decimals from the [decimal] package with a
[Currency] value and a [Registry] of known currencies.

# Features

  - Immutable currencies, registries and monetary values, safe for use across
    multiple goroutines
  - ISO 4217 and namespaced currencies such as "crypto/ETH", with numeric
    identifiers, nominal scales, kinds and domains
  - Weighted resolution of ambiguous codes and numeric identifiers
  - Classification hierarchies for domains, kinds and traits
  - Arithmetic that rejects mixing currencies and never rounds silently
  - Allocation and distribution that always preserve the total
  - Conversion of monetary values using exchange rates

# Representation

A [Currency] is a small comparable value with an identifier, an optional
numeric identifier, a nominal scale (or [AutoScaled]), a kind and a domain.
A [Money] pairs a Currency with a [decimal.Decimal] amount.

A [Registry] is an immutable set of currencies with their countries,
localized properties, traits, weights and hierarchies. Every update returns
a new registry. The process-wide default registry lives in a [Holder] and is
initialized from an embedded description; see [RegistryConfig] for the
format and [SetDefault] to replace it.

# Resolution

Currencies are looked up with hints: an [ID], a [NumericID], a [Currency]
or a [Mask]. [Resolve] returns the zero Currency when nothing matches, while
[Unit] returns an error wrapping [ErrCurrencyNotFound]. When several
currencies share a code or numeric identifier, the one with the lowest
weight wins and ties are broken by identifier.

# Rounding

Operations that have to discard digits use the rounding mode of a
[Context]. The default context has no rounding mode, so such operations
fail with [ErrRoundingRequired] until one is given explicitly, derived with
[WithRounding], or installed with [SetDefaultContext].

# Operations

[Context.Add] and [Context.Sub] are exact. [Context.Mul] accepts at most one
monetary operand. [Context.Div] divides money by numbers, or money by money
of the same currency, which yields a dimensionless [Number].
[Money.Allocate] and [Money.Distribute] split an amount into parts that sum
up exactly to the original amount.

# Errors

Failed operations return an [*OpError] carrying the operation name and its
operands. Use [errors.Is] with the package sentinels, such as
[ErrCurrencyMismatch], to classify them.
*/
package monetary
