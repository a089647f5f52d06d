package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_RendersCatalog(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)

	system := p.System()
	require.Contains(t, system, "Role:")
	require.Contains(t, system, "sustainability expert in AWS")
	require.Contains(t, system, "Valid services are: EC2, RDS, Lambda, EKS, ELASTICACHE, FARGATE, EBS, S3.")
	require.Contains(t, system, "M5 (m5.large | m5.xlarge")
	require.Contains(t, system, "db.t3.medium")
	require.Contains(t, system, "cache.r6gd.16xlarge")
	require.Contains(t, system, "- FARGATE: max memory 120 GiB and max 16 vCPU")
	require.Contains(t, system, "assume region us-east-1")
	require.Contains(t, system, "Assume 730 hours per month")
	require.Contains(t, system, "only sustainability in AWS")
	require.Contains(t, system, "Answer in the spoken language of the user.")
	require.Contains(t, system, "scope 1, 2 and 3")
}

func TestDefault_IsStable(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	require.Equal(t, a.System(), b.System())
	require.Equal(t, a.PromptSuffix(), b.PromptSuffix())
}

func TestDefault_PromptSuffix(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)
	suffix := p.PromptSuffix()
	require.Contains(t, suffix, "KgCO2e per month")
	require.Contains(t, suffix, "polite answer")
	require.NotContains(t, suffix, "\n")
}

func TestServices_ReturnsCopy(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)
	s := p.Services()
	s[0] = "changed"
	require.Equal(t, "EC2", p.Services()[0])
}

func validCatalog() Catalog {
	return Catalog{
		Persona:       "expert",
		Services:      []string{"EC2", "S3"},
		DefaultRegion: "us-east-1",
		HoursPerMonth: 730,
		Specifications: []Specification{
			{Service: "EC2", Families: []Family{{Name: "T3", Types: []string{"t3.micro"}}}},
			{Service: "S3", Values: []string{"S3 Standard"}},
		},
		Rules:        []string{"rule one", "rule two"},
		PromptSuffix: "check it",
	}
}

func TestNew_NumbersRules(t *testing.T) {
	p, err := New(validCatalog())
	require.NoError(t, err)
	require.Contains(t, p.System(), "1) rule one\n2) rule two")
	require.Contains(t, p.System(), "- EC2 instance families and types: T3 (t3.micro)")
	require.Contains(t, p.System(), "- S3: S3 Standard")
}

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Catalog)
		want   string
	}{
		{name: "persona", mutate: func(c *Catalog) { c.Persona = " " }, want: "persona"},
		{name: "services", mutate: func(c *Catalog) { c.Services = nil }, want: "service"},
		{name: "region", mutate: func(c *Catalog) { c.DefaultRegion = "" }, want: "region"},
		{name: "hours", mutate: func(c *Catalog) { c.HoursPerMonth = 0 }, want: "hours"},
		{name: "suffix", mutate: func(c *Catalog) { c.PromptSuffix = "" }, want: "suffix"},
		{name: "unknown service", mutate: func(c *Catalog) {
			c.Specifications = append(c.Specifications, Specification{Service: "DynamoDB", Limits: "x"})
		}, want: "unknown service"},
		{name: "ambiguous spec", mutate: func(c *Catalog) {
			c.Specifications[1].Limits = "x"
		}, want: "exactly one"},
		{name: "empty family", mutate: func(c *Catalog) {
			c.Specifications[0].Families[0].Types = nil
		}, want: "no instance types"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCatalog()
			tc.mutate(&c)
			_, err := New(c)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("persona: x\nunknown: true\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode catalog")
}
