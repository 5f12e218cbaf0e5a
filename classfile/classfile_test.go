package classfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classlift/unjavac/ir"
)

// buildMinimal assembles the bytes of a trivial class file:
//
//	class com/example/Widget extends java/lang/Object {
//	    int count;
//	    void <init>() { Code: maxStack=1 maxLocals=1 bytecode=[0xb1] }
//	}
func buildMinimal(t *testing.T) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	u2 := func(v uint16) { buf.Write([]byte{byte(v >> 8), byte(v)}) }
	u4 := func(v uint32) { buf.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}) }
	utf8 := func(s string) {
		buf.WriteByte(tagUtf8)
		u2(uint16(len(s)))
		buf.WriteString(s)
	}
	classEntry := func(nameIndex uint16) {
		buf.WriteByte(tagClass)
		u2(nameIndex)
	}

	u4(Magic)
	u2(0) // minor
	u2(61) // major

	// constant pool: 9 slots used (count = 10)
	// 1: Utf8 "com/example/Widget"
	// 2: Class -> 1
	// 3: Utf8 "java/lang/Object"
	// 4: Class -> 3
	// 5: Utf8 "<init>"
	// 6: Utf8 "()V"
	// 7: Utf8 "Code"
	// 8: Utf8 "count"
	// 9: Utf8 "I"
	u2(10)
	utf8("com/example/Widget")
	classEntry(1)
	utf8("java/lang/Object")
	classEntry(3)
	utf8("<init>")
	utf8("()V")
	utf8("Code")
	utf8("count")
	utf8("I")

	u2(0x0021) // access_flags: ACC_PUBLIC | ACC_SUPER
	u2(2)      // this_class
	u2(4)      // super_class
	u2(0)      // interfaces_count

	// fields_count = 1
	u2(1)
	u2(0x0000) // access_flags
	u2(8)      // name_index -> "count"
	u2(9)      // descriptor_index -> "I"
	u2(0)      // attributes_count

	// methods_count = 1
	u2(1)
	u2(0x0001) // access_flags: ACC_PUBLIC
	u2(5)      // name_index -> "<init>"
	u2(6)      // descriptor_index -> "()V"
	u2(1)      // attributes_count
	// Code attribute
	u2(7) // attribute_name_index -> "Code"
	code := &bytes.Buffer{}
	cu2 := func(v uint16) { code.Write([]byte{byte(v >> 8), byte(v)}) }
	cu4 := func(v uint32) { code.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}) }
	cu2(1) // max_stack
	cu2(1) // max_locals
	cu4(1) // code_length
	code.WriteByte(0xb1) // return
	cu2(0) // exception_table_length
	cu2(0) // attributes_count
	u4(uint32(code.Len()))
	buf.Write(code.Bytes())

	u2(0) // class attributes_count

	return buf.Bytes()
}

func TestParseMinimalClass(t *testing.T) {
	cf, err := Parse(bytes.NewReader(buildMinimal(t)))
	require.NoError(t, err)
	require.Equal(t, uint16(61), cf.Major)

	name, err := cf.ThisClassName()
	require.NoError(t, err)
	require.Equal(t, "com.example.Widget", name)

	super, err := cf.SuperClassName()
	require.NoError(t, err)
	require.Equal(t, "java.lang.Object", super)

	require.Len(t, cf.Fields, 1)
	require.Len(t, cf.Methods, 1)

	methodName, err := cf.MethodName(cf.Methods[0])
	require.NoError(t, err)
	require.Equal(t, "<init>", methodName)
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte{0, 0, 0, 0}))
	require.Error(t, err)
	require.IsType(t, InvalidMagicError(0), err)
}

func TestMethodCode(t *testing.T) {
	cf, err := Parse(bytes.NewReader(buildMinimal(t)))
	require.NoError(t, err)

	code, err := cf.MethodCode(cf.Methods[0])
	require.NoError(t, err)
	require.NotNil(t, code)
	require.Equal(t, uint16(1), code.MaxStack)
	require.Equal(t, uint16(1), code.MaxLocals)
	require.Equal(t, []byte{0xb1}, code.Bytecode)
}

func TestResolve(t *testing.T) {
	cf, err := Parse(bytes.NewReader(buildMinimal(t)))
	require.NoError(t, err)

	md, err := Resolve(cf)
	require.NoError(t, err)

	ref, err := md.ClassRef(2)
	require.NoError(t, err)
	require.Equal(t, ir.ClassRef{Name: "com.example.Widget"}, ref)
}

func TestParseFieldDescriptor(t *testing.T) {
	cases := []struct {
		descriptor string
		want       string
	}{
		{"I", "int"},
		{"[I", "int[]"},
		{"Ljava/lang/String;", "java.lang.String"},
		{"[Ljava/lang/String;", "java.lang.String[]"},
	}
	for _, c := range cases {
		typ, err := ParseFieldDescriptor(c.descriptor)
		require.NoError(t, err)
		require.Equal(t, c.want, typ.String())
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	sig, err := ParseMethodDescriptor("(ILjava/lang/String;)Z")
	require.NoError(t, err)
	require.Len(t, sig.Parameters, 2)
	require.Equal(t, "int", sig.Parameters[0].String())
	require.Equal(t, "java.lang.String", sig.Parameters[1].String())
	require.Equal(t, "boolean", sig.Return.String())
}

func TestParseMethodDescriptorVoidReturn(t *testing.T) {
	sig, err := ParseMethodDescriptor("()V")
	require.NoError(t, err)
	require.Empty(t, sig.Parameters)
	require.Equal(t, "void", sig.Return.String())
}

func TestParseMethodDescriptorMalformed(t *testing.T) {
	_, err := ParseMethodDescriptor("I)V")
	require.Error(t, err)
}
