// Package onnx provides Go bindings for the ONNX Runtime C API.
//
// ONNX Runtime is a cross-platform inference engine for ONNX models.
// This package wraps the C API, providing Go-native types for
// Environment, Session, and Tensor.
//
// # Architecture
//
// The package exposes three core types:
//
//   - [Env]: global environment (one per process)
//   - [Session]: loads and holds a model (.onnx file)
//   - [Tensor]: N-dimensional float32 or int64 tensor for input/output data
//
// Usage flow:
//
//	env, _ := onnx.NewEnv("kittentts")
//	defer env.Close()
//
//	session, _ := env.NewSessionWithOptions(modelData, onnx.PortableOptions())
//	defer session.Close()
//
//	ids, _ := onnx.NewInt64Tensor([]int64{1, 4}, []int64{0, 43, 56, 0})
//	defer ids.Close()
//
//	outputs, _ := session.Run([]string{"input_ids"}, []*onnx.Tensor{ids}, []string{"waveform"})
//	result, _ := outputs[0].FloatData()
//
// # Execution backends
//
// [SessionOptions] selects how the graph is executed. Two presets are
// provided: [AcceleratedOptions] (full graph optimization, parallel
// execution) and [PortableOptions] (no graph rewrites, sequential,
// single-threaded). The portable preset trades speed for numerically
// conservative kernels.
//
// # Dynamic Linking
//
// ONNX Runtime is dynamically linked (.dylib/.so) via CGo.
//
// # Thread Safety
//
// Env is safe for concurrent use. Session.Run is thread-safe
// (ONNX Runtime uses internal locking).
package onnx

/*
#cgo LDFLAGS: -lonnxruntime

#include <onnxruntime_c_api.h>
#include <stdlib.h>
#include <string.h>

// Helper: get the ORT API pointer.
static const OrtApi* ort_api() {
    return OrtGetApiBase()->GetApi(ORT_API_VERSION);
}

// Helper: create environment.
static OrtStatus* ort_create_env(const OrtApi* api, const char* name, OrtEnv** out) {
    return api->CreateEnv(ORT_LOGGING_LEVEL_WARNING, name, out);
}

// Helper: create session options.
static OrtStatus* ort_create_session_options(const OrtApi* api, OrtSessionOptions** out) {
    return api->CreateSessionOptions(out);
}

// Helper: configure session options.
static OrtStatus* ort_configure_session_options(const OrtApi* api, OrtSessionOptions* opts,
    int graph_opt, int intra_threads, int sequential, int disable_arena) {
    OrtStatus* status = api->SetSessionGraphOptimizationLevel(opts, (GraphOptimizationLevel)graph_opt);
    if (status) return status;
    if (intra_threads > 0) {
        status = api->SetIntraOpNumThreads(opts, intra_threads);
        if (status) return status;
    }
    status = api->SetSessionExecutionMode(opts, sequential ? ORT_SEQUENTIAL : ORT_PARALLEL);
    if (status) return status;
    if (disable_arena) {
        status = api->DisableCpuMemArena(opts);
    }
    return status;
}

// Helper: create session from memory.
static OrtStatus* ort_create_session_from_memory(const OrtApi* api, OrtEnv* env,
    const void* model_data, size_t model_data_len, OrtSessionOptions* opts, OrtSession** out) {
    return api->CreateSessionFromArray(env, model_data, model_data_len, opts, out);
}

// Helper: create tensor with float data.
static OrtStatus* ort_create_tensor_float(const OrtApi* api, OrtMemoryInfo* info,
    float* data, size_t data_len, int64_t* shape, size_t shape_len, OrtValue** out) {
    return api->CreateTensorWithDataAsOrtValue(info, data, data_len * sizeof(float),
        shape, shape_len, ONNX_TENSOR_ELEMENT_DATA_TYPE_FLOAT, out);
}

// Helper: create tensor with int64 data.
static OrtStatus* ort_create_tensor_int64(const OrtApi* api, OrtMemoryInfo* info,
    int64_t* data, size_t data_len, int64_t* shape, size_t shape_len, OrtValue** out) {
    return api->CreateTensorWithDataAsOrtValue(info, data, data_len * sizeof(int64_t),
        shape, shape_len, ONNX_TENSOR_ELEMENT_DATA_TYPE_INT64, out);
}

// Helper: create CPU memory info.
static OrtStatus* ort_create_cpu_memory_info(const OrtApi* api, OrtMemoryInfo** out) {
    return api->CreateCpuMemoryInfo(OrtArenaAllocator, OrtMemTypeDefault, out);
}

// Helper: run session.
static OrtStatus* ort_run(const OrtApi* api, OrtSession* session,
    const char** input_names, const OrtValue* const* inputs, size_t num_inputs,
    const char** output_names, size_t num_outputs, OrtValue** outputs) {
    return api->Run(session, NULL, input_names, inputs, num_inputs,
        output_names, num_outputs, outputs);
}

// Helper: get tensor float data.
static OrtStatus* ort_get_tensor_float_data(const OrtApi* api, OrtValue* value, float** out) {
    return api->GetTensorMutableData(value, (void**)out);
}

// Helper: get tensor shape info.
static OrtStatus* ort_get_tensor_shape(const OrtApi* api, OrtValue* value,
    int64_t* shape, size_t shape_len) {
    OrtTensorTypeAndShapeInfo* info;
    OrtStatus* status = api->GetTensorTypeAndShape(value, &info);
    if (status) return status;
    status = api->GetDimensions(info, shape, shape_len);
    api->ReleaseTensorTypeAndShapeInfo(info);
    return status;
}

// Helper: get tensor shape dimension count.
static OrtStatus* ort_get_tensor_ndim(const OrtApi* api, OrtValue* value, size_t* ndim) {
    OrtTensorTypeAndShapeInfo* info;
    OrtStatus* status = api->GetTensorTypeAndShape(value, &info);
    if (status) return status;
    status = api->GetDimensionsCount(info, ndim);
    api->ReleaseTensorTypeAndShapeInfo(info);
    return status;
}

// Helper: count session inputs or outputs.
static OrtStatus* ort_session_io_count(const OrtApi* api, OrtSession* s, int output, size_t* out) {
    if (output) return api->SessionGetOutputCount(s, out);
    return api->SessionGetInputCount(s, out);
}

// Helper: copy the name of input/output i into a malloc'd C string.
static OrtStatus* ort_session_io_name(const OrtApi* api, OrtSession* s, int output, size_t i, char** out) {
    OrtAllocator* alloc;
    OrtStatus* status = api->GetAllocatorWithDefaultOptions(&alloc);
    if (status) return status;
    char* name;
    if (output) {
        status = api->SessionGetOutputName(s, i, alloc, &name);
    } else {
        status = api->SessionGetInputName(s, i, alloc, &name);
    }
    if (status) return status;
    *out = strdup(name);
    return api->AllocatorFree(alloc, name);
}

// Helper: get error message.
static const char* ort_error_message(const OrtApi* api, OrtStatus* status) {
    return api->GetErrorMessage(status);
}

// Helper: release status.
static void ort_release_status(const OrtApi* api, OrtStatus* status) {
    api->ReleaseStatus(status);
}

// Release helpers.
static void ort_release_env(const OrtApi* api, OrtEnv* env) { api->ReleaseEnv(env); }
static void ort_release_session(const OrtApi* api, OrtSession* s) { api->ReleaseSession(s); }
static void ort_release_session_options(const OrtApi* api, OrtSessionOptions* o) { api->ReleaseSessionOptions(o); }
static void ort_release_memory_info(const OrtApi* api, OrtMemoryInfo* i) { api->ReleaseMemoryInfo(i); }
static void ort_release_value(const OrtApi* api, OrtValue* v) { api->ReleaseValue(v); }
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

// api returns the global ORT API pointer.
func api() *C.OrtApi {
	return C.ort_api()
}

// checkStatus converts an OrtStatus to a Go error.
func checkStatus(status *C.OrtStatus) error {
	if status == nil {
		return nil
	}
	msg := C.GoString(C.ort_error_message(api(), status))
	C.ort_release_status(api(), status)
	return fmt.Errorf("onnx: %s", msg)
}

// --------------------------------------------------------------------------
// Session options
// --------------------------------------------------------------------------

// GraphOptimization mirrors ORT's GraphOptimizationLevel.
type GraphOptimization int

const (
	GraphOptimizationDisabled GraphOptimization = 0
	GraphOptimizationBasic    GraphOptimization = 1
	GraphOptimizationExtended GraphOptimization = 2
	GraphOptimizationAll      GraphOptimization = 99
)

// SessionOptions configures how a session executes its graph.
type SessionOptions struct {
	// GraphOptimization is the graph rewrite level applied at load time.
	GraphOptimization GraphOptimization

	// IntraOpThreads bounds the threads used inside one operator.
	// Zero leaves the ORT default.
	IntraOpThreads int

	// Sequential runs graph nodes one at a time.
	Sequential bool

	// DisableMemArena turns off the CPU memory arena.
	DisableMemArena bool
}

// AcceleratedOptions returns options tuned for throughput.
func AcceleratedOptions() *SessionOptions {
	return &SessionOptions{
		GraphOptimization: GraphOptimizationAll,
		IntraOpThreads:    runtime.NumCPU(),
	}
}

// PortableOptions returns options with graph rewrites disabled and a single
// sequential thread.
func PortableOptions() *SessionOptions {
	return &SessionOptions{
		GraphOptimization: GraphOptimizationDisabled,
		IntraOpThreads:    1,
		Sequential:        true,
		DisableMemArena:   true,
	}
}

// --------------------------------------------------------------------------
// Env
// --------------------------------------------------------------------------

// Env is the ONNX Runtime environment. Create one per process.
type Env struct {
	env *C.OrtEnv
}

// NewEnv creates a new ONNX Runtime environment.
func NewEnv(name string) (*Env, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var env *C.OrtEnv
	if err := checkStatus(C.ort_create_env(api(), cName, &env)); err != nil {
		return nil, err
	}

	e := &Env{env: env}
	runtime.SetFinalizer(e, (*Env).Close)
	return e, nil
}

// NewSession creates a session from in-memory ONNX model data using the
// ORT default options.
func (e *Env) NewSession(modelData []byte) (*Session, error) {
	return e.NewSessionWithOptions(modelData, nil)
}

// NewSessionWithOptions creates a session from in-memory ONNX model data.
// A nil opts uses the ORT defaults.
func (e *Env) NewSessionWithOptions(modelData []byte, opts *SessionOptions) (*Session, error) {
	if len(modelData) == 0 {
		return nil, fmt.Errorf("onnx: empty model data")
	}
	if e.env == nil {
		return nil, fmt.Errorf("onnx: environment closed")
	}

	var copts *C.OrtSessionOptions
	if err := checkStatus(C.ort_create_session_options(api(), &copts)); err != nil {
		return nil, err
	}
	defer C.ort_release_session_options(api(), copts)

	if opts != nil {
		if err := checkStatus(C.ort_configure_session_options(api(), copts,
			C.int(opts.GraphOptimization),
			C.int(opts.IntraOpThreads),
			cBool(opts.Sequential),
			cBool(opts.DisableMemArena),
		)); err != nil {
			return nil, err
		}
	}

	var session *C.OrtSession
	if err := checkStatus(C.ort_create_session_from_memory(
		api(), e.env,
		unsafe.Pointer(&modelData[0]), C.size_t(len(modelData)),
		copts, &session,
	)); err != nil {
		return nil, err
	}

	s := &Session{session: session, pinned: modelData}
	runtime.SetFinalizer(s, (*Session).Close)
	return s, nil
}

// Close releases the environment.
func (e *Env) Close() error {
	if e.env != nil {
		C.ort_release_env(api(), e.env)
		e.env = nil
		runtime.SetFinalizer(e, nil)
	}
	return nil
}

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// Session holds a loaded ONNX model.
type Session struct {
	session *C.OrtSession
	pinned  any // prevents GC of model data
}

// InputNames returns the names of the model's graph inputs.
func (s *Session) InputNames() ([]string, error) {
	return s.ioNames(false)
}

// OutputNames returns the names of the model's graph outputs.
func (s *Session) OutputNames() ([]string, error) {
	return s.ioNames(true)
}

func (s *Session) ioNames(output bool) ([]string, error) {
	if s.session == nil {
		return nil, fmt.Errorf("onnx: session closed")
	}
	var n C.size_t
	if err := checkStatus(C.ort_session_io_count(api(), s.session, cBool(output), &n)); err != nil {
		return nil, err
	}
	names := make([]string, 0, int(n))
	for i := C.size_t(0); i < n; i++ {
		var cName *C.char
		if err := checkStatus(C.ort_session_io_name(api(), s.session, cBool(output), i, &cName)); err != nil {
			return nil, err
		}
		names = append(names, C.GoString(cName))
		C.free(unsafe.Pointer(cName))
	}
	return names, nil
}

// Run executes inference with the given inputs and output names.
// Returns output tensors. The caller must close each output tensor.
func (s *Session) Run(inputNames []string, inputs []*Tensor, outputNames []string) ([]*Tensor, error) {
	if len(inputNames) != len(inputs) {
		return nil, fmt.Errorf("onnx: input names/tensors length mismatch: %d vs %d", len(inputNames), len(inputs))
	}
	if len(inputs) == 0 || len(outputNames) == 0 {
		return nil, fmt.Errorf("onnx: at least one input and one output are required")
	}
	if s.session == nil {
		return nil, fmt.Errorf("onnx: session closed")
	}

	// Prepare C input names
	cInputNames := make([]*C.char, len(inputNames))
	for i, name := range inputNames {
		cInputNames[i] = C.CString(name)
		defer C.free(unsafe.Pointer(cInputNames[i]))
	}

	// Prepare C input values
	cInputs := make([]*C.OrtValue, len(inputs))
	for i, t := range inputs {
		cInputs[i] = t.value
	}

	// Prepare C output names
	cOutputNames := make([]*C.char, len(outputNames))
	for i, name := range outputNames {
		cOutputNames[i] = C.CString(name)
		defer C.free(unsafe.Pointer(cOutputNames[i]))
	}

	// Allocate output values
	cOutputs := make([]*C.OrtValue, len(outputNames))

	status := C.ort_run(api(), s.session,
		&cInputNames[0], &cInputs[0], C.size_t(len(inputs)),
		&cOutputNames[0], C.size_t(len(outputNames)), &cOutputs[0],
	)
	if err := checkStatus(status); err != nil {
		return nil, err
	}

	// Wrap outputs
	outputs := make([]*Tensor, len(outputNames))
	for i, val := range cOutputs {
		outputs[i] = &Tensor{value: val, owned: true}
		runtime.SetFinalizer(outputs[i], (*Tensor).Close)
	}
	return outputs, nil
}

// Close releases the session.
func (s *Session) Close() error {
	if s.session != nil {
		C.ort_release_session(api(), s.session)
		s.session = nil
		runtime.SetFinalizer(s, nil)
	}
	return nil
}

// --------------------------------------------------------------------------
// Tensor
// --------------------------------------------------------------------------

// Tensor is an N-dimensional tensor (OrtValue).
type Tensor struct {
	value  *C.OrtValue
	pinned any  // prevents GC of external data
	owned  bool // if true, Close releases the OrtValue
}

// checkShape validates shape against the number of available elements.
func checkShape(shape []int64, n int) error {
	if n == 0 {
		return fmt.Errorf("onnx: empty tensor data")
	}
	if len(shape) == 0 {
		return fmt.Errorf("onnx: empty tensor shape")
	}
	total := int64(1)
	for _, d := range shape {
		total *= d
	}
	if int64(n) < total {
		return fmt.Errorf("onnx: tensor data too short: got %d, need %d", n, total)
	}
	return nil
}

// NewTensor creates a float32 tensor with the given shape and data.
// The data slice must remain valid for the lifetime of the Tensor.
func NewTensor(shape []int64, data []float32) (*Tensor, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}

	var memInfo *C.OrtMemoryInfo
	if err := checkStatus(C.ort_create_cpu_memory_info(api(), &memInfo)); err != nil {
		return nil, err
	}
	defer C.ort_release_memory_info(api(), memInfo)

	var value *C.OrtValue
	if err := checkStatus(C.ort_create_tensor_float(
		api(), memInfo,
		(*C.float)(unsafe.Pointer(&data[0])),
		C.size_t(len(data)),
		(*C.int64_t)(unsafe.Pointer(&shape[0])),
		C.size_t(len(shape)),
		&value,
	)); err != nil {
		return nil, err
	}

	t := &Tensor{value: value, pinned: data, owned: true}
	runtime.SetFinalizer(t, (*Tensor).Close)
	return t, nil
}

// NewInt64Tensor creates an int64 tensor with the given shape and data.
// The data slice must remain valid for the lifetime of the Tensor.
func NewInt64Tensor(shape []int64, data []int64) (*Tensor, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}

	var memInfo *C.OrtMemoryInfo
	if err := checkStatus(C.ort_create_cpu_memory_info(api(), &memInfo)); err != nil {
		return nil, err
	}
	defer C.ort_release_memory_info(api(), memInfo)

	var value *C.OrtValue
	if err := checkStatus(C.ort_create_tensor_int64(
		api(), memInfo,
		(*C.int64_t)(unsafe.Pointer(&data[0])),
		C.size_t(len(data)),
		(*C.int64_t)(unsafe.Pointer(&shape[0])),
		C.size_t(len(shape)),
		&value,
	)); err != nil {
		return nil, err
	}

	t := &Tensor{value: value, pinned: data, owned: true}
	runtime.SetFinalizer(t, (*Tensor).Close)
	return t, nil
}

// FloatData copies the tensor data into a new float32 slice.
func (t *Tensor) FloatData() ([]float32, error) {
	var ptr *C.float
	if err := checkStatus(C.ort_get_tensor_float_data(api(), t.value, &ptr)); err != nil {
		return nil, err
	}

	// Get shape to determine total elements
	var ndim C.size_t
	if err := checkStatus(C.ort_get_tensor_ndim(api(), t.value, &ndim)); err != nil {
		return nil, err
	}

	shape := make([]C.int64_t, int(ndim))
	if ndim > 0 {
		if err := checkStatus(C.ort_get_tensor_shape(api(), t.value, &shape[0], ndim)); err != nil {
			return nil, err
		}
	}

	total := 1
	for _, d := range shape {
		total *= int(d)
	}
	if total <= 0 {
		return nil, nil
	}

	out := make([]float32, total)
	C.memcpy(unsafe.Pointer(&out[0]), unsafe.Pointer(ptr), C.size_t(total*4))
	return out, nil
}

// Shape returns the tensor dimensions.
func (t *Tensor) Shape() ([]int64, error) {
	var ndim C.size_t
	if err := checkStatus(C.ort_get_tensor_ndim(api(), t.value, &ndim)); err != nil {
		return nil, err
	}

	if ndim == 0 {
		return nil, nil
	}

	shape := make([]int64, int(ndim))
	if err := checkStatus(C.ort_get_tensor_shape(api(), t.value, (*C.int64_t)(unsafe.Pointer(&shape[0])), ndim)); err != nil {
		return nil, err
	}
	return shape, nil
}

// Close releases the tensor.
func (t *Tensor) Close() error {
	if t.value != nil && t.owned {
		C.ort_release_value(api(), t.value)
		t.value = nil
		runtime.SetFinalizer(t, nil)
	}
	return nil
}
