package operators

import (
	"errors"
	"testing"

	"github.com/born-ml/onnxcast/internal/cast"
	"github.com/born-ml/onnxcast/internal/tensor"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	for _, op := range []string{"Cast", "Identity", "Shape", "Size"} {
		if _, ok := r.Get(op); !ok {
			t.Errorf("Expected operator %s to be registered", op)
		}
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("UnknownOp"); ok {
		t.Error("Expected unknown operator to not be found")
	}
	if _, err := r.Execute(nil, &Node{OpType: "UnknownOp"}, nil); err == nil {
		t.Error("Expected error executing unknown operator")
	}
}

func TestSupportedOps(t *testing.T) {
	r := NewRegistry()
	ops := r.SupportedOps()

	want := []string{"Cast", "Identity", "Shape", "Size"}
	if len(ops) != len(want) {
		t.Fatalf("SupportedOps() = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("SupportedOps()[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestRegisterCustomOp(t *testing.T) {
	r := NewRegistry()

	r.Register("MyCustomOp", func(_ *Context, _ *Node, _ []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
		return nil, nil
	})

	if _, ok := r.Get("MyCustomOp"); !ok {
		t.Error("Expected custom operator to be registered")
	}
	if _, ok := r.KernelDef("MyCustomOp", 0); ok {
		t.Error("Expected no kernel definition for custom operator")
	}
	if _, err := r.Execute(&Context{Opset: 3}, &Node{OpType: "MyCustomOp"}, nil); err != nil {
		t.Errorf("Custom operator should run at any opset: %v", err)
	}
}

func TestCastKernelDefVersions(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		opset     int
		wantOK    bool
		wantSince int
	}{
		{5, false, 0},
		{6, true, 6},
		{12, true, 6},
		{13, true, 13},
		{21, true, 13},
		{0, true, 13},
	}
	for _, tt := range tests {
		def, ok := r.KernelDef("Cast", tt.opset)
		if ok != tt.wantOK {
			t.Errorf("KernelDef(Cast, %d) ok = %v, want %v", tt.opset, ok, tt.wantOK)
			continue
		}
		if ok && def.SinceVersion != tt.wantSince {
			t.Errorf("KernelDef(Cast, %d).SinceVersion = %d, want %d", tt.opset, def.SinceVersion, tt.wantSince)
		}
	}
}

func TestCastKernelDefConstraints(t *testing.T) {
	def, ok := NewRegistry().KernelDef("Cast", 13)
	if !ok {
		t.Fatal("Cast kernel definition missing")
	}

	for _, dt := range cast.EnabledSourceTypes() {
		if !def.Supports("T1", dt) {
			t.Errorf("T1 should support %s", dt)
		}
	}
	for _, dt := range cast.EnabledDestTypes() {
		if !def.Supports("T2", dt) {
			t.Errorf("T2 should support %s", dt)
		}
	}
	if def.Supports("T1", tensor.Undefined) {
		t.Error("T1 should not support undefined")
	}
	if def.Supports("T3", tensor.Float32) {
		t.Error("unknown type variable should support nothing")
	}
	if !def.MayInplace(0, 0) {
		t.Error("Cast should allow output 0 to reuse input 0")
	}
	if def.MayInplace(0, 1) {
		t.Error("Cast has no second output")
	}
}

func TestExecuteRejectsOldOpset(t *testing.T) {
	r := NewRegistry()
	in, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1})
	node := &Node{OpType: "Cast", Attributes: []Attribute{IntAttr("to", TensorProtoInt32)}}

	if _, err := r.Execute(&Context{Opset: 5}, node, []*tensor.RawTensor{in}); err == nil {
		t.Error("Expected Cast to be unavailable at opset 5")
	}
	if _, err := r.Execute(&Context{Opset: 6}, node, []*tensor.RawTensor{in}); err != nil {
		t.Errorf("Cast at opset 6: %v", err)
	}
}

func TestExecuteChecksInputKinds(t *testing.T) {
	r := NewRegistry()
	r.RegisterKernel(KernelDef{
		OpType:          "FloatOnly",
		SinceVersion:    1,
		TypeConstraints: map[string][]tensor.DataType{"T": {tensor.Float32}},
		Inputs:          []string{"T"},
	}, handleIdentity)

	in, _ := tensor.FromSlice([]int32{1}, tensor.Shape{1})
	_, err := r.Execute(nil, &Node{OpType: "FloatOnly"}, []*tensor.RawTensor{in})
	if !errors.Is(err, cast.ErrUnsupportedType) {
		t.Errorf("Expected ErrUnsupportedType, got %v", err)
	}
}

func TestIdentity(t *testing.T) {
	r := NewRegistry()
	in, _ := tensor.FromStrings([]string{"a", "b"}, tensor.Shape{2})

	out, err := r.Execute(nil, &Node{OpType: "Identity"}, []*tensor.RawTensor{in})
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if out[0].SharesBuffer(in) {
		t.Error("Identity output should not alias its input")
	}
	got := out[0].AsString()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Identity = %v, want [a b]", got)
	}
}

func TestShapeAndSize(t *testing.T) {
	r := NewRegistry()
	in, _ := tensor.NewRaw(tensor.Shape{2, 3, 4}, tensor.BFloat16)

	out, err := r.Execute(nil, &Node{OpType: "Shape"}, []*tensor.RawTensor{in})
	if err != nil {
		t.Fatalf("Shape failed: %v", err)
	}
	dims := out[0].AsInt64()
	if len(dims) != 3 || dims[0] != 2 || dims[1] != 3 || dims[2] != 4 {
		t.Errorf("Shape = %v, want [2 3 4]", dims)
	}

	out, err = r.Execute(nil, &Node{OpType: "Size"}, []*tensor.RawTensor{in})
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if len(out[0].Shape()) != 0 {
		t.Errorf("Size output should be a scalar, got shape %v", out[0].Shape())
	}
	if got := out[0].AsInt64()[0]; got != 24 {
		t.Errorf("Size = %d, want 24", got)
	}
}
