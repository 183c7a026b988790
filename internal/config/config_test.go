package config

import "testing"

func TestValidate_PortRange(t *testing.T) {
	cases := []struct {
		port    int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{3000, false},
		{65535, false},
		{65536, true},
		{-1, true},
	}

	for _, tc := range cases {
		c := &Config{Port: tc.port}
		err := c.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("port %d: expected error, got nil", tc.port)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("port %d: unexpected error: %v", tc.port, err)
		}
	}
}

func TestValidate_TLSPairMustBeBoth(t *testing.T) {
	if err := (&Config{Port: 3000, TLSCert: "cert.pem"}).Validate(); err == nil {
		t.Fatal("expected an error when only --tls-cert is set")
	}
	if err := (&Config{Port: 3000, TLSKey: "key.pem"}).Validate(); err == nil {
		t.Fatal("expected an error when only --tls-key is set")
	}
	if err := (&Config{Port: 3000, TLSCert: "cert.pem", TLSKey: "key.pem"}).Validate(); err != nil {
		t.Fatalf("both tls flags set should validate cleanly: %v", err)
	}
	if err := (&Config{Port: 3000}).Validate(); err != nil {
		t.Fatalf("neither tls flag set should validate cleanly: %v", err)
	}
}

func TestScheme_ReflectsTLSConfiguration(t *testing.T) {
	if got := (&Config{}).Scheme(); got != "http" {
		t.Fatalf("Scheme() = %q, want http", got)
	}
	c := &Config{TLSCert: "cert.pem", TLSKey: "key.pem"}
	if got := c.Scheme(); got != "https" {
		t.Fatalf("Scheme() = %q, want https", got)
	}
}
