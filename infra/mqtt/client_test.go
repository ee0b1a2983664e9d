package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremqtt "github.com/kilianp07/rehearsal/core/mqtt"
	"github.com/kilianp07/rehearsal/core/store"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pemBlock("CERTIFICATE", der)
	keyPEM := pemBlock("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	for path, data := range map[string][]byte{certFile: certPEM, keyFile: keyPEM, caFile: certPEM} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}
	if _, err := (Config{UseTLS: true}).LoadTLSConfig(); err == nil {
		t.Fatalf("expected error without cert files")
	}
}

func TestNewClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p", LWTTopic: "lwt", LWTPayload: "bye"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "lwt" || string(opts.WillPayload) != "bye" {
		t.Fatalf("will options incorrect")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	if cfg.Enabled() {
		t.Fatalf("empty broker must disable publishing")
	}
	cfg.SetDefaults()
	if cfg.Topic != DefaultTopic || cfg.MaxRetries != 3 || cfg.ClientID == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.QoS = 3
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected qos error")
	}
}

func sol() store.Solution {
	return store.Solution{ID: "run-1", Order: []int{2, 1}, Energy: 150, Satisfied: true, CreatedAt: time.UnixMilli(1234)}
}

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestPublish(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	p, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ClientID: "id", Topic: "board", QoS: 1, Retain: true})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.Publish(context.Background(), sol()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(mc.published))
	}
	msg := mc.published[0]
	if msg.topic != "board" || msg.qos != 1 || !msg.retained {
		t.Fatalf("unexpected publish settings %+v", msg)
	}
	var ann Announcement
	if err := json.Unmarshal(msg.payload, &ann); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if ann.RunID != "run-1" || ann.Energy != 150 || ann.Timestamp != 1234 || len(ann.Order) != 2 {
		t.Fatalf("unexpected announcement %+v", ann)
	}
	p.Disconnect()
}

func TestPublishRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMock(t, mc)
	p, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.Publish(context.Background(), sol()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected retries")
	}
}

func TestPublishGivesUp(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	withMock(t, mc)
	p, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.Publish(context.Background(), sol()); !errors.Is(err, fail) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
	if len(mc.published) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(mc.published))
	}
}

func TestPublishTimeout(t *testing.T) {
	mc := &mockClient{stall: true}
	withMock(t, mc)
	p, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1, TimeoutMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.Publish(context.Background(), sol()); !errors.Is(err, coremqtt.ErrPublishTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestNewDisabled(t *testing.T) {
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := p.(coremqtt.NopPublisher); !ok {
		t.Fatalf("expected NopPublisher, got %T", p)
	}
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	if err := m.Publish(context.Background(), sol()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	m.Fail = true
	if err := m.Publish(context.Background(), sol()); err == nil {
		t.Fatalf("expected failure")
	}
	if got := m.Published(); len(got) != 1 || got[0].RunID != "run-1" {
		t.Fatalf("unexpected messages %+v", got)
	}
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests.
type mockClient struct {
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	// stall makes publish tokens never complete.
	stall bool
}

func (m *mockClient) IsConnected() bool   { return true }
func (m *mockClient) Connect() paho.Token { return &dummyToken{} }
func (m *mockClient) Disconnect(uint)     {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic: topic, qos: qos, retained: retained, payload: b})
	if m.stall {
		return &dummyToken{stall: true}
	}
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct {
	err   error
	stall bool
}

func (d dummyToken) Wait() bool                     { return !d.stall }
func (d dummyToken) WaitTimeout(time.Duration) bool { return !d.stall }
func (d dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !d.stall {
		close(ch)
	}
	return ch
}
func (d dummyToken) Error() error { return d.err }

func pemBlock(kind string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: kind, Bytes: der})
}
