package benchmarks

import (
	"context"
	"fmt"
	"testing"

	formts "github.com/VirtusLab-Open-Source/formts-sub001"
	formtstest "github.com/VirtusLab-Open-Source/formts-sub001/testing"
)

func BenchmarkForm_SetFieldValue(b *testing.B) {
	ctx := context.Background()
	f := formts.New(formtstest.SignupSchema())
	name := f.Schema().MustField("name")
	f.Rules(name, formts.Required(), formts.MaxLength(64))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.SetFieldValue(ctx, name, fmt.Sprintf("n%d", i))
	}
}

func BenchmarkForm_SetFieldValue_Watched(b *testing.B) {
	ctx := context.Background()
	f := formts.New(formtstest.SignupSchema())
	s := f.Schema()
	name := s.MustField("name")

	for _, path := range []string{"name", "age", "address", "address.city", "contacts"} {
		f.FieldState(s.MustField(path)).Subscribe(func(formts.FieldState) {})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.SetFieldValue(ctx, name, fmt.Sprintf("n%d", i))
	}
}

func BenchmarkForm_ValidateForm(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("contacts=%d", n), func(b *testing.B) {
			ctx := context.Background()
			f := formts.New(formtstest.SignupSchema())
			s := f.Schema()
			f.Rules(s.MustField("name"), formts.Required())
			f.RulesEach(s.MustField("contacts"), formts.Required())

			contacts := make([]any, n)
			for i := range contacts {
				contacts[i] = map[string]any{"email": fmt.Sprintf("c%d@example.com", i)}
			}
			if err := f.ResetForm(ctx, map[string]any{"name": "Ada", "contacts": contacts}); err != nil {
				b.Fatalf("ResetForm() error = %v", err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := f.ValidateForm(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkParsePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = formts.ParsePath("orders[12].lines[3].sku")
	}
}
