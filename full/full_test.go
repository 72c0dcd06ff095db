package full

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/availability"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/router"
	"github.com/adrianmcphee/crossbase/schema"
)

func testService(t *testing.T, mutate func(*crossbase.Config)) (*Service, string) {
	t.Helper()
	cfg := crossbase.DefaultConfig()
	cfg.DataPath = filepath.Join(t.TempDir(), "data")
	if mutate != nil {
		mutate(&cfg)
	}
	s := NewService(WithConfig(cfg))
	t.Cleanup(func() { _ = s.Close() })
	return s, cfg.DataPath
}

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

func TestTypesConformToContracts(t *testing.T) {
	for _, contract := range []*schema.Type{schema.Data, schema.Message} {
		if err := schema.DefaultRegistry.Conforms(contract, Backend); err != nil {
			t.Errorf("Conforms(%s) error = %v", contract.Name(), err)
		}
	}
	if !MessageType.Fields().Has(FieldContentBlocks) {
		t.Error("full Message should declare content_blocks")
	}
}

func TestRegistersWithCatalogAndRouter(t *testing.T) {
	ok, err := availability.DefaultCatalog().Lookup(availability.FullPackage)
	if err != nil || !ok {
		t.Fatalf("full package not announced: %v, %v", ok, err)
	}
	decoders := map[string]func(router.Namespace) error{
		capability.Memory.Name:  func(ns router.Namespace) error { _, err := capability.DecodeMemory(ns); return err },
		capability.Helpers.Name: func(ns router.Namespace) error { _, err := capability.DecodeHelpers(ns); return err },
		capability.Auth.Name:    func(ns router.Namespace) error { _, err := capability.DecodeAuth(ns); return err },
	}
	for group, decode := range decoders {
		ns, ok := router.DefaultRegistry.Namespace(router.Full, group)
		if !ok {
			t.Errorf("group %s not provided", group)
			continue
		}
		if err := decode(ns); err != nil {
			t.Errorf("decode %s: %v", group, err)
		}
	}
}

func TestStorageOpensLazily(t *testing.T) {
	s, dir := testService(t, nil)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("data dir created before first operation: %v", err)
	}
	if _, err := s.AddMessages(context.Background(), []schema.Record{NewMessage("hi", "User", "ann", "s1")}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "messages"))
	if err != nil || len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".json") {
		t.Errorf("messages dir = %v, %v", entries, err)
	}
}

func TestMessageLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := testService(t, nil)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	for _, text := range []string{"one", "two", "three"} {
		if _, err := s.AddMessages(ctx, []schema.Record{NewMessage(text, "User", "ann", "s1")}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.AddMessages(ctx, []schema.Record{NewMessage("elsewhere", "Machine", "bot", "s2")}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMessages(ctx, capability.MessageQuery{SessionID: "s1", Order: capability.OrderDesc, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].(*Message).Text != "three" || got[1].(*Message).Text != "two" {
		t.Fatalf("GetMessages(desc, limit) = %v", got)
	}

	first, _ := s.GetMessages(ctx, capability.MessageQuery{SessionID: "s1", Limit: 1})
	m := first[0].(*Message)
	m.Text = "one edited"
	m.Timestamp = time.Time{}
	updated, err := s.UpdateMessages(ctx, []schema.Record{m})
	if err != nil {
		t.Fatalf("UpdateMessages() error = %v", err)
	}
	if u := updated[0].(*Message); u.Text != "one edited" || !u.Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("updated = %+v", u)
	}

	ghost := NewMessage("x", "User", "ann", "s1")
	ghost.ID = crossbase.NewID()
	if _, err := s.UpdateMessages(ctx, []schema.Record{ghost}); !crossbase.IsNotFound(err) {
		t.Errorf("UpdateMessages(unknown) error = %v", err)
	}

	if err := s.DeleteMessage(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMessage(ctx, m.ID); err != nil {
		t.Errorf("second DeleteMessage() error = %v", err)
	}
	if err := s.DeleteMessage(ctx, "../escape"); !errors.Is(err, crossbase.ErrInvalidData) {
		t.Errorf("DeleteMessage(bad id) error = %v", err)
	}

	if err := s.DeleteMessages(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	all, _ := s.GetMessages(ctx, capability.MessageQuery{})
	if len(all) != 1 || all[0].(*Message).SessionID != "s2" {
		t.Errorf("remaining messages = %v", all)
	}
}

func TestStoreMessage(t *testing.T) {
	ctx := context.Background()
	s, _ := testService(t, nil)

	if _, err := s.StoreMessage(ctx, NewMessage("x", "", "ann", "s")); !errors.Is(err, crossbase.ErrInvalidData) {
		t.Errorf("StoreMessage(no sender) error = %v", err)
	}

	stored, err := s.StoreMessage(ctx, NewMessage("x", "User", "ann", "s"))
	if err != nil {
		t.Fatal(err)
	}
	m := stored.(*Message)
	m.Text = "y"
	if _, err := s.StoreMessage(ctx, m); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetMessages(ctx, capability.MessageQuery{SessionID: "s"})
	if len(got) != 1 || got[0].(*Message).Text != "y" {
		t.Errorf("GetMessages() = %v", got)
	}
}

func TestSessionIndexQueries(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	metrics := crossbase.NewInMemoryMetrics()
	cfg := crossbase.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.RedisAddr = mr.Addr()
	s := NewService(WithConfig(cfg), WithMetrics(metrics))
	defer s.Close()

	msg := NewMessage("hi", "User", "ann", "s1")
	msg.FlowID = "flow-1"
	if _, err := s.AddMessages(ctx, []schema.Record{msg, NewMessage("other", "User", "ann", "s2")}); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("crossbase:idx:messages:session_id:s1") || !mr.Exists("crossbase:idx:messages:flow_id:flow-1") {
		t.Fatal("messages were not indexed")
	}

	got, err := s.GetMessages(ctx, capability.MessageQuery{SessionID: "s1"})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetMessages(session) = %v, %v", got, err)
	}
	got, _ = s.GetMessages(ctx, capability.MessageQuery{FlowID: "flow-1"})
	if len(got) != 1 {
		t.Errorf("GetMessages(flow) = %v", got)
	}
	if metrics.Counter(crossbase.MetricIndexHits, "index", "session_id") != 1 {
		t.Error("session index hit not counted")
	}

	if err := s.DeleteMessages(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("crossbase:idx:messages:session_id:s1") {
		t.Error("session set should be dropped")
	}
	if members, _ := mr.Members("crossbase:idx:messages:flow_id:flow-1"); len(members) != 0 {
		t.Errorf("flow set still holds %v", members)
	}
}

func TestAsyncOps(t *testing.T) {
	ctx := context.Background()
	s, _ := testService(t, nil)
	ops := s.MemoryOps()

	added, err := ops.AddMessagesAsync(ctx, []schema.Record{NewMessage("a", "User", "ann", "s")}).Wait(ctx)
	if err != nil || len(added) != 1 {
		t.Fatalf("AddMessagesAsync() = %v, %v", added, err)
	}
	got, err := ops.GetMessagesAsync(ctx, capability.MessageQuery{SessionID: "s"}).Wait(ctx)
	if err != nil || len(got) != 1 {
		t.Errorf("GetMessagesAsync() = %v, %v", got, err)
	}
}

func TestFlows(t *testing.T) {
	ctx := context.Background()
	s, _ := testService(t, nil)

	older := capability.Flow{ID: "f1", Name: "older", UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := capability.Flow{ID: "f2", Name: "newer", UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Nodes: []capability.FlowNode{{ID: "ChatInput-1", Type: "ChatInput", IsInput: true}}}
	for _, f := range []capability.Flow{older, newer} {
		if err := s.SaveFlow(ctx, f); err != nil {
			t.Fatal(err)
		}
	}

	ops := s.HelpersOps()
	flows, err := ops.ListFlows(ctx)
	if err != nil || len(flows) != 2 || flows[0].ID != "f2" {
		t.Fatalf("ListFlows() = %v, %v", flows, err)
	}
	f, err := ops.LoadFlow(ctx, "f2")
	if err != nil {
		t.Fatal(err)
	}
	if inputs := ops.GetFlowInputs(f); len(inputs) != 1 || inputs[0].ID != "ChatInput-1" {
		t.Errorf("GetFlowInputs() = %v", inputs)
	}
	if _, err := ops.LoadFlow(ctx, "missing"); !crossbase.IsNotFound(err) {
		t.Errorf("LoadFlow(missing) error = %v", err)
	}
}

func TestAuthSettings(t *testing.T) {
	s, _ := testService(t, func(c *crossbase.Config) { c.SecretKey = testKey() })
	settings := map[string]any{"auth_type": "oauth", "oauth_client_secret": "shh", "api_key": "k", "port": 8080}

	enc, err := s.EncryptSettings(settings)
	if err != nil {
		t.Fatal(err)
	}
	if settings["api_key"] != "k" {
		t.Error("EncryptSettings must not modify its input")
	}
	secret := enc["oauth_client_secret"].(string)
	if !strings.HasPrefix(secret, "enc:") || enc["auth_type"] != "oauth" || enc["port"] != 8080 {
		t.Errorf("EncryptSettings() = %v", enc)
	}

	again, err := s.EncryptSettings(enc)
	if err != nil || again["oauth_client_secret"] != secret {
		t.Error("EncryptSettings should leave sealed values alone")
	}

	dec, err := s.DecryptSettings(enc)
	if err != nil || dec["oauth_client_secret"] != "shh" || dec["api_key"] != "k" {
		t.Errorf("DecryptSettings() = %v, %v", dec, err)
	}

	other := testKey()
	other[0] = 0xff
	wrong, _ := testService(t, func(c *crossbase.Config) { c.SecretKey = other })
	if _, err := wrong.DecryptSettings(enc); !errors.Is(err, crossbase.ErrInvalidData) {
		t.Errorf("DecryptSettings(wrong key) error = %v", err)
	}

	nokey, _ := testService(t, nil)
	if _, err := nokey.EncryptSettings(settings); !errors.Is(err, crossbase.ErrInvalidConfig) {
		t.Errorf("EncryptSettings(no key) error = %v", err)
	}
}

func TestConfigureRejectsInvalidConfig(t *testing.T) {
	s := NewService()
	cfg := crossbase.DefaultConfig()
	cfg.WriteFanout = 0
	if err := s.Configure(cfg); !errors.Is(err, crossbase.ErrInvalidConfig) {
		t.Errorf("Configure() error = %v", err)
	}
}

// chatMessage is a caller-defined subtype of Message.
type chatMessage struct {
	*Message
	Channel string
}

var chatMessageType = schema.Define("ChatMessage", MessageType, schema.Opt("channel"))

func (c *chatMessage) Schema() *schema.Type { return chatMessageType }

func (c *chatMessage) Field(name string) (any, bool) {
	if name == "channel" {
		return c.Channel, true
	}
	return c.Message.Field(name)
}

func TestMemoryOpsAcceptMessageSubtype(t *testing.T) {
	ctx := context.Background()
	s, _ := testService(t, nil)
	chat := &chatMessage{Message: NewMessage("hi", "User", "ann", "s"), Channel: "general"}
	if !schema.Compatible(chat, schema.Message) {
		t.Fatal("subtype should be compatible with Message")
	}

	added, err := s.AddMessages(ctx, []schema.Record{chat})
	if err != nil {
		t.Fatalf("AddMessages(subtype) error = %v", err)
	}
	m := added[0].(*Message)
	if m.Text != "hi" || m.SessionID != "s" {
		t.Errorf("stored message = %+v", m)
	}

	stored, err := s.StoreMessage(ctx, &chatMessage{Message: NewMessage("again", "User", "ann", "s")})
	if err != nil {
		t.Fatalf("StoreMessage(subtype) error = %v", err)
	}
	if stored.(*Message).Text != "again" {
		t.Errorf("StoreMessage() = %+v", stored)
	}

	m.Text = "edited"
	if _, err := s.UpdateMessages(ctx, []schema.Record{&chatMessage{Message: m}}); err != nil {
		t.Fatalf("UpdateMessages(subtype) error = %v", err)
	}
	got, err := s.GetMessages(ctx, capability.MessageQuery{SessionID: "s", Order: capability.OrderAsc})
	if err != nil || len(got) != 2 || got[0].(*Message).Text != "edited" {
		t.Errorf("GetMessages() = %v, %v", got, err)
	}
}
