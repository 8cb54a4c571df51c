package addressfmt_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/addressfmt"
)

func newFormatter(t *testing.T, opts ...addressfmt.Option) *addressfmt.Formatter {
	t.Helper()
	f, err := addressfmt.New(opts...)
	require.NoError(t, err)
	require.NotNil(t, f)
	return f
}

func houseOfLords() addressfmt.Address {
	return addressfmt.Address{
		HouseName:  "House Of Lords",
		StreetName: "Rectory Road",
		County:     "Greater London",
		State:      "England",
		PostalCode: "BR3 1HZ",
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("loads embedded templates by default", func(t *testing.T) {
		t.Parallel()
		f := newFormatter(t)

		want := []string{
			"at", "au", "br", "ca", "de", "dk", "es", "fi", "fr",
			"gb", "ie", "it", "jp", "nl", "no", "se", "us",
		}
		if diff := cmp.Diff(want, f.Countries()); diff != "" {
			t.Errorf("Countries() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("custom entries replace the default source", func(t *testing.T) {
		t.Parallel()
		f := newFormatter(t, addressfmt.WithEntries(addressfmt.Entry{
			Country:    "XX",
			Multiline:  "{{street_name}}",
			Singleline: "{{street_name}}",
		}))
		require.Equal(t, []string{"xx"}, f.Countries())
	})

	t.Run("later source overrides earlier one", func(t *testing.T) {
		t.Parallel()
		f := newFormatter(t,
			addressfmt.WithSource(addressfmt.DefaultSource()),
			addressfmt.WithEntries(addressfmt.Entry{
				Country:    "GB",
				Multiline:  "{{postalcode}}",
				Singleline: "{{postalcode}}",
			}),
		)

		got, err := f.FormatMultiline("gb", houseOfLords())
		require.NoError(t, err)
		require.Equal(t, "BR3 1HZ", got)
		require.True(t, f.Supports("us"))
	})

	t.Run("fails on template syntax error", func(t *testing.T) {
		t.Parallel()
		_, err := addressfmt.New(addressfmt.WithEntries(addressfmt.Entry{
			Country:    "ZZ",
			Multiline:  "{{#unit}}never closed",
			Singleline: "{{unit}}",
		}))
		require.Error(t, err)
		require.ErrorIs(t, err, addressfmt.ErrTemplateCompile)

		var compileErr *addressfmt.TemplateCompileError
		require.ErrorAs(t, err, &compileErr)
		assert.Equal(t, "zz", compileErr.Country)
		assert.Equal(t, addressfmt.ModeMultiline, compileErr.Mode)
		assert.Error(t, compileErr.Unwrap())
	})

	t.Run("fails on entry without singleline template", func(t *testing.T) {
		t.Parallel()
		_, err := addressfmt.New(addressfmt.WithEntries(addressfmt.Entry{
			Country:   "ZZ",
			Multiline: "{{unit}}",
		}))
		require.ErrorIs(t, err, addressfmt.ErrInvalidSource)
	})

	t.Run("fails on nil source", func(t *testing.T) {
		t.Parallel()
		_, err := addressfmt.New(addressfmt.WithSource(nil))
		require.ErrorIs(t, err, addressfmt.ErrInvalidSource)
	})
}

func TestFormatter_EndToEnd(t *testing.T) {
	t.Parallel()

	f := newFormatter(t)

	tests := []struct {
		name       string
		country    string
		address    addressfmt.Address
		multiline  string
		singleline string
	}{
		{
			name:       "gb without unit",
			country:    "GB",
			address:    houseOfLords(),
			multiline:  "House Of Lords\nRectory Road\nGreater London\nEngland\nBR3 1HZ",
			singleline: "House Of Lords, Rectory Road, Greater London, England, BR3 1HZ",
		},
		{
			name:    "gb with unit",
			country: "gb",
			address: func() addressfmt.Address {
				a := houseOfLords()
				a.Unit = "Flat 2"
				return a
			}(),
			multiline:  "Flat 2, House Of Lords\nRectory Road\nGreater London\nEngland\nBR3 1HZ",
			singleline: "Flat 2, House Of Lords, Rectory Road, Greater London, England, BR3 1HZ",
		},
		{
			name:    "us",
			country: "us",
			address: addressfmt.Address{
				StreetNumber: "1600",
				StreetName:   "Pennsylvania Avenue NW",
				City:         "Washington",
				State:        "DC",
				PostalCode:   "20500",
			},
			multiline:  "1600 Pennsylvania Avenue NW\nWashington, DC 20500",
			singleline: "1600 Pennsylvania Avenue NW, Washington, DC 20500",
		},
		{
			name:    "br complete",
			country: "BR",
			address: addressfmt.Address{
				StreetName:   "Avenida Paulista",
				StreetNumber: "1578",
				Locality:     "Bela Vista",
				City:         "São Paulo",
				State:        "SP",
				PostalCode:   "01310-200",
			},
			multiline:  "Avenida Paulista, 1578\nBela Vista\nSão Paulo - SP\n01310-200",
			singleline: "Avenida Paulista, 1578, Bela Vista, São Paulo - SP, 01310-200",
		},
		{
			name:    "br without city and state drops the dash",
			country: "br",
			address: addressfmt.Address{
				StreetName: "Rua A",
				PostalCode: "01000-000",
			},
			multiline:  "Rua A\n01000-000",
			singleline: "Rua A, 01000-000",
		},
		{
			name:    "br with state only strips the leading dash",
			country: "br",
			address: addressfmt.Address{
				StreetName: "Rua A",
				State:      "SP",
			},
			multiline:  "Rua A\nSP",
			singleline: "Rua A, - SP",
		},
		{
			name:    "de",
			country: "de",
			address: addressfmt.Address{
				StreetName:   "Unter den Linden",
				StreetNumber: "77",
				PostalCode:   "10117",
				City:         "Berlin",
			},
			multiline:  "Unter den Linden 77\n10117 Berlin",
			singleline: "Unter den Linden 77, 10117 Berlin",
		},
		{
			name:    "au falls back to city without suburb",
			country: "au",
			address: addressfmt.Address{
				Unit:         "12",
				StreetNumber: "1",
				StreetName:   "Macquarie Street",
				City:         "Sydney",
				State:        "NSW",
				PostalCode:   "2000",
			},
			multiline:  "12/1 Macquarie Street\nSydney NSW 2000",
			singleline: "12/1 Macquarie Street, Sydney NSW 2000",
		},
		{
			name:    "au prefers suburb",
			country: "au",
			address: addressfmt.Address{
				StreetNumber: "1",
				StreetName:   "Macquarie Street",
				Locality:     "Haymarket",
				City:         "Sydney",
				State:        "NSW",
				PostalCode:   "2000",
			},
			multiline:  "1 Macquarie Street\nHaymarket NSW 2000",
			singleline: "1 Macquarie Street, Haymarket NSW 2000",
		},
		{
			name:    "jp",
			country: "jp",
			address: addressfmt.Address{
				PostalCode:   "100-0001",
				State:        "東京都",
				City:         "千代田区",
				Locality:     "千代田",
				StreetNumber: "1-1",
			},
			multiline:  "〒100-0001\n東京都千代田区千代田\n1-1",
			singleline: "〒100-0001, 東京都千代田区千代田, 1-1",
		},
		{
			name:    "no from a multi-country file",
			country: "NO",
			address: addressfmt.Address{
				StreetName:   "Karl Johans gate",
				StreetNumber: "1",
				PostalCode:   "0154",
				City:         "Oslo",
			},
			multiline:  "Karl Johans gate 1\n0154 Oslo",
			singleline: "Karl Johans gate 1, 0154 Oslo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			multiline, err := f.FormatMultiline(tt.country, tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.multiline, multiline)

			singleline, err := f.FormatSingleline(tt.country, tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.singleline, singleline)

			both, err := f.Format(tt.country, tt.address)
			require.NoError(t, err)
			assert.Equal(t, addressfmt.Formatted{Multiline: tt.multiline, Singleline: tt.singleline}, both)
		})
	}
}

func TestFormatter_EmptyFieldSuppression(t *testing.T) {
	t.Parallel()

	f := newFormatter(t)
	got, err := f.FormatMultiline("GB", houseOfLords())
	require.NoError(t, err)

	lines := strings.Split(got, "\n")
	for _, line := range lines {
		require.NotEmpty(t, strings.TrimSpace(line), "blank line in %q", got)
		require.NotEmpty(t, strings.Trim(line, ", -"), "punctuation-only line in %q", got)
		require.Equal(t, strings.Trim(line, ", -"), line, "leading or trailing punctuation in %q", line)
	}
	require.Equal(t, "BR3 1HZ", lines[len(lines)-1])

	single, err := f.FormatSingleline("GB", houseOfLords())
	require.NoError(t, err)
	require.NotContains(t, single, ", ,")
	require.False(t, strings.HasPrefix(single, ","))
	require.False(t, strings.HasSuffix(single, ", "))
}

func TestFormatter_CountryLookup(t *testing.T) {
	t.Parallel()

	f := newFormatter(t)

	t.Run("is case-insensitive", func(t *testing.T) {
		t.Parallel()
		lower, err := f.FormatMultiline("gb", houseOfLords())
		require.NoError(t, err)
		upper, err := f.FormatMultiline("GB", houseOfLords())
		require.NoError(t, err)
		mixed, err := f.FormatSingleline("Gb", houseOfLords())
		require.NoError(t, err)

		assert.Equal(t, lower, upper)
		assert.Equal(t, "House Of Lords, Rectory Road, Greater London, England, BR3 1HZ", mixed)
	})

	t.Run("unknown country keeps the original code", func(t *testing.T) {
		t.Parallel()
		for _, code := range []string{"zz", "ZZ", "UK", "", "gbr"} {
			_, err := f.FormatMultiline(code, houseOfLords())
			require.ErrorIs(t, err, addressfmt.ErrCountryNotSupported)

			var notSupported *addressfmt.CountryNotSupportedError
			require.ErrorAs(t, err, &notSupported)
			assert.Equal(t, code, notSupported.Country)

			_, err = f.FormatSingleline(code, addressfmt.Map{})
			require.ErrorIs(t, err, addressfmt.ErrCountryNotSupported)
			assert.False(t, f.Supports(code))
		}
	})
}

func TestFormatter_RenderErrors(t *testing.T) {
	t.Parallel()

	f := newFormatter(t)

	t.Run("record missing a referenced field", func(t *testing.T) {
		t.Parallel()
		_, err := f.FormatMultiline("GB", addressfmt.Map{"street_name": "Rectory Road"})
		require.ErrorIs(t, err, addressfmt.ErrRender)
		require.ErrorIs(t, err, addressfmt.ErrFieldNotExposed)

		var renderErr *addressfmt.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, "city", renderErr.Field)
		assert.Equal(t, "gb", renderErr.Country)
		assert.Equal(t, addressfmt.ModeMultiline, renderErr.Mode)
		assert.Contains(t, renderErr.Error(), `field "city"`)
	})

	t.Run("nil record", func(t *testing.T) {
		t.Parallel()
		_, err := f.FormatSingleline("us", nil)
		require.ErrorIs(t, err, addressfmt.ErrRender)
		require.ErrorIs(t, err, addressfmt.ErrNilFields)
	})

	t.Run("format returns no partial result", func(t *testing.T) {
		t.Parallel()
		got, err := f.Format("GB", addressfmt.Map{"unit": "1"})
		require.Error(t, err)
		require.Equal(t, addressfmt.Formatted{}, got)
	})

	t.Run("map exposing every referenced field renders", func(t *testing.T) {
		t.Parallel()
		record := addressfmt.Map{}
		for _, name := range addressfmt.FieldNames {
			record[name] = ""
		}
		record["street_name"] = "Rectory Road"
		record["postalcode"] = "BR3 1HZ"

		got, err := f.FormatSingleline("gb", record)
		require.NoError(t, err)
		require.Equal(t, "Rectory Road, BR3 1HZ", got)
	})
}

func TestFormatter_CustomRecord(t *testing.T) {
	t.Parallel()

	type shipment struct {
		Street  string  `json:"street_name"`
		Number  int     `json:"street_number"`
		Town    string  `json:"city"`
		Comment *string `json:"unit"`
	}

	f := newFormatter(t, addressfmt.WithEntries(addressfmt.Entry{
		Country:    "xx",
		Multiline:  "{{street_name}} {{street_number}}{{#unit}} ({{unit}}){{/unit}}\n{{city}}",
		Singleline: "{{street_name}} {{street_number}}, {{city}}",
	}))

	fields, err := addressfmt.FieldsOf(shipment{Street: "Main Street", Number: 5, Town: "Springfield"})
	require.NoError(t, err)

	got, err := f.FormatMultiline("XX", fields)
	require.NoError(t, err)
	require.Equal(t, "Main Street 5\nSpringfield", got)

	got, err = f.FormatSingleline("XX", fields)
	require.NoError(t, err)
	require.Equal(t, "Main Street 5, Springfield", got)
}

func TestFormatter_Determinism(t *testing.T) {
	t.Parallel()

	f := newFormatter(t)
	want, err := f.Format("gb", houseOfLords())
	require.NoError(t, err)

	const goroutines = 32
	results := make([]addressfmt.Formatted, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.Format("GB", houseOfLords())
		}(i)
	}
	wg.Wait()

	require.NoError(t, errors.Join(errs...))
	for _, got := range results {
		require.Equal(t, want, got)
	}
}

func TestFormatter_OutputNeverGrows(t *testing.T) {
	t.Parallel()

	f := newFormatter(t)
	addresses := []addressfmt.Address{
		{},
		houseOfLords(),
		{Unit: "4B", StreetNumber: "10", StreetName: "Main St", City: "Town", State: "ST", PostalCode: "12345"},
		{Locality: "-", City: ",", PostalCode: " "},
	}

	for _, country := range f.Countries() {
		set, ok := f.Registry().Lookup(country)
		require.True(t, ok)

		for _, addr := range addresses {
			raw, err := set.Multiline.Render(addr)
			require.NoError(t, err)

			got, err := f.FormatMultiline(country, addr)
			require.NoError(t, err)

			rawLines := len(strings.Split(raw, "\n"))
			outLines := 0
			if got != "" {
				outLines = len(strings.Split(got, "\n"))
			}
			assert.LessOrEqual(t, outLines, rawLines, "country %s", country)
			assert.Equal(t, got, addressfmt.NormalizeMultiline(got), "country %s", country)
		}
	}
}
