package jsrt

import "fmt"

// GlobalType identifies a cacheable global constructor or namespace object.
type GlobalType int

const (
	TypeObject GlobalType = iota
	TypeFunction
	TypeArray
	TypeArrayBuffer
	TypeBoolean
	TypeDataView
	TypeDate
	TypeError
	TypeEvalError
	TypeRangeError
	TypeReferenceError
	TypeSyntaxError
	TypeTypeError
	TypeURIError
	TypeMap
	TypeSet
	TypeWeakMap
	TypeWeakSet
	TypeNumber
	TypeString
	TypeSymbol
	TypeRegExp
	TypePromise
	TypeProxy
	TypeReflect
	TypeJSON
	TypeMath
	TypeInt8Array
	TypeUint8Array
	TypeUint8ClampedArray
	TypeInt16Array
	TypeUint16Array
	TypeInt32Array
	TypeUint32Array
	TypeFloat32Array
	TypeFloat64Array

	globalTypeCount
)

type globalTypeInfo struct {
	name string
	// namespace objects (JSON, Math, Reflect) are plain objects, not constructors
	namespace bool
	// Proxy is a constructor without a prototype property
	noPrototype bool
}

var globalTypes = [...]globalTypeInfo{
	TypeObject:            {name: "Object"},
	TypeFunction:          {name: "Function"},
	TypeArray:             {name: "Array"},
	TypeArrayBuffer:       {name: "ArrayBuffer"},
	TypeBoolean:           {name: "Boolean"},
	TypeDataView:          {name: "DataView"},
	TypeDate:              {name: "Date"},
	TypeError:             {name: "Error"},
	TypeEvalError:         {name: "EvalError"},
	TypeRangeError:        {name: "RangeError"},
	TypeReferenceError:    {name: "ReferenceError"},
	TypeSyntaxError:       {name: "SyntaxError"},
	TypeTypeError:         {name: "TypeError"},
	TypeURIError:          {name: "URIError"},
	TypeMap:               {name: "Map"},
	TypeSet:               {name: "Set"},
	TypeWeakMap:           {name: "WeakMap"},
	TypeWeakSet:           {name: "WeakSet"},
	TypeNumber:            {name: "Number"},
	TypeString:            {name: "String"},
	TypeSymbol:            {name: "Symbol"},
	TypeRegExp:            {name: "RegExp"},
	TypePromise:           {name: "Promise"},
	TypeProxy:             {name: "Proxy", noPrototype: true},
	TypeReflect:           {name: "Reflect", namespace: true},
	TypeJSON:              {name: "JSON", namespace: true},
	TypeMath:              {name: "Math", namespace: true},
	TypeInt8Array:         {name: "Int8Array"},
	TypeUint8Array:        {name: "Uint8Array"},
	TypeUint8ClampedArray: {name: "Uint8ClampedArray"},
	TypeInt16Array:        {name: "Int16Array"},
	TypeUint16Array:       {name: "Uint16Array"},
	TypeInt32Array:        {name: "Int32Array"},
	TypeUint32Array:       {name: "Uint32Array"},
	TypeFloat32Array:      {name: "Float32Array"},
	TypeFloat64Array:      {name: "Float64Array"},
}

// Fails to compile when the table and the enumeration drift apart.
var _ [globalTypeCount]globalTypeInfo = globalTypes

func (t GlobalType) String() string {
	if t < 0 || t >= globalTypeCount {
		return fmt.Sprintf("GlobalType(%d)", int(t))
	}
	return globalTypes[t].name
}

// GlobalPrototypeFunction identifies a cacheable (constructor, prototype method) pair.
type GlobalPrototypeFunction int

const (
	ObjectToString GlobalPrototypeFunction = iota
	ObjectValueOf
	ObjectHasOwnProperty
	ObjectIsPrototypeOf
	FunctionCall
	FunctionApply
	FunctionBind
	FunctionToString
	ArrayPush
	ArraySlice
	ArrayJoin
	ArrayForEach
	ArrayIndexOf
	StringConcat
	StringIndexOf
	StringSlice
	NumberToString
	BooleanValueOf
	MapGet
	MapSet
	MapHas
	MapDelete
	SetAdd
	SetHas
	SetDelete
	WeakMapGet
	WeakMapSet
	WeakMapHas
	DateGetTime
	DateToISOString
	PromiseThen
	PromiseCatch
	SymbolToString
	ErrorToString
	RegExpExec

	prototypeFunctionCount
)

type prototypeFunctionInfo struct {
	owner  GlobalType
	method string
}

var prototypeFunctions = [...]prototypeFunctionInfo{
	ObjectToString:       {TypeObject, "toString"},
	ObjectValueOf:        {TypeObject, "valueOf"},
	ObjectHasOwnProperty: {TypeObject, "hasOwnProperty"},
	ObjectIsPrototypeOf:  {TypeObject, "isPrototypeOf"},
	FunctionCall:         {TypeFunction, "call"},
	FunctionApply:        {TypeFunction, "apply"},
	FunctionBind:         {TypeFunction, "bind"},
	FunctionToString:     {TypeFunction, "toString"},
	ArrayPush:            {TypeArray, "push"},
	ArraySlice:           {TypeArray, "slice"},
	ArrayJoin:            {TypeArray, "join"},
	ArrayForEach:         {TypeArray, "forEach"},
	ArrayIndexOf:         {TypeArray, "indexOf"},
	StringConcat:         {TypeString, "concat"},
	StringIndexOf:        {TypeString, "indexOf"},
	StringSlice:          {TypeString, "slice"},
	NumberToString:       {TypeNumber, "toString"},
	BooleanValueOf:       {TypeBoolean, "valueOf"},
	MapGet:               {TypeMap, "get"},
	MapSet:               {TypeMap, "set"},
	MapHas:               {TypeMap, "has"},
	MapDelete:            {TypeMap, "delete"},
	SetAdd:               {TypeSet, "add"},
	SetHas:               {TypeSet, "has"},
	SetDelete:            {TypeSet, "delete"},
	WeakMapGet:           {TypeWeakMap, "get"},
	WeakMapSet:           {TypeWeakMap, "set"},
	WeakMapHas:           {TypeWeakMap, "has"},
	DateGetTime:          {TypeDate, "getTime"},
	DateToISOString:      {TypeDate, "toISOString"},
	PromiseThen:          {TypePromise, "then"},
	PromiseCatch:         {TypePromise, "catch"},
	SymbolToString:       {TypeSymbol, "toString"},
	ErrorToString:        {TypeError, "toString"},
	RegExpExec:           {TypeRegExp, "exec"},
}

var _ [prototypeFunctionCount]prototypeFunctionInfo = prototypeFunctions

func (f GlobalPrototypeFunction) String() string {
	if f < 0 || f >= prototypeFunctionCount {
		return fmt.Sprintf("GlobalPrototypeFunction(%d)", int(f))
	}
	info := prototypeFunctions[f]
	return info.owner.String() + ".prototype." + info.method
}

// ProxyTrap identifies a Proxy handler trap and its Reflect counterpart.
type ProxyTrap int

const (
	TrapApply ProxyTrap = iota
	TrapConstruct
	TrapDefineProperty
	TrapDeleteProperty
	TrapGet
	TrapGetOwnPropertyDescriptor
	TrapGetPrototypeOf
	TrapHas
	TrapIsExtensible
	TrapOwnKeys
	TrapPreventExtensions
	TrapSet
	TrapSetPrototypeOf

	proxyTrapCount
)

var proxyTraps = [...]string{
	TrapApply:                    "apply",
	TrapConstruct:                "construct",
	TrapDefineProperty:           "defineProperty",
	TrapDeleteProperty:           "deleteProperty",
	TrapGet:                      "get",
	TrapGetOwnPropertyDescriptor: "getOwnPropertyDescriptor",
	TrapGetPrototypeOf:           "getPrototypeOf",
	TrapHas:                      "has",
	TrapIsExtensible:             "isExtensible",
	TrapOwnKeys:                  "ownKeys",
	TrapPreventExtensions:        "preventExtensions",
	TrapSet:                      "set",
	TrapSetPrototypeOf:           "setPrototypeOf",
}

var _ [proxyTrapCount]string = proxyTraps

func (t ProxyTrap) String() string {
	if t < 0 || t >= proxyTrapCount {
		return fmt.Sprintf("ProxyTrap(%d)", int(t))
	}
	return proxyTraps[t]
}

// ShimFunction identifies a helper defined by the bootstrap script.
type ShimFunction int

const (
	ShimInstanceOf ShimFunction = iota
	ShimCloneObject
	ShimForEachNonConfigurableProperty
	ShimGetPropertyNames
	ShimGetEnumerableNamedProperties
	ShimGetEnumerableIndexedProperties
	ShimCreateEnumerationIterator
	ShimCreatePropertyDescriptorsEnumerationIterator
	ShimGetNamedOwnKeys
	ShimGetIndexedOwnKeys
	ShimGetStackTrace
	ShimIsUint
	ShimTestFunctionType
	ShimCreateTargetFunction
	ShimPromiseContinuation

	shimFunctionCount
)

var shimFunctions = [...]string{
	ShimInstanceOf:                                   "instanceOf",
	ShimCloneObject:                                  "cloneObject",
	ShimForEachNonConfigurableProperty:               "forEachNonConfigurableProperty",
	ShimGetPropertyNames:                             "getPropertyNames",
	ShimGetEnumerableNamedProperties:                 "getEnumerableNamedProperties",
	ShimGetEnumerableIndexedProperties:               "getEnumerableIndexedProperties",
	ShimCreateEnumerationIterator:                    "createEnumerationIterator",
	ShimCreatePropertyDescriptorsEnumerationIterator: "createPropertyDescriptorsEnumerationIterator",
	ShimGetNamedOwnKeys:                              "getNamedOwnKeys",
	ShimGetIndexedOwnKeys:                            "getIndexedOwnKeys",
	ShimGetStackTrace:                                "getStackTrace",
	ShimIsUint:                                       "isUint",
	ShimTestFunctionType:                             "testFunctionType",
	ShimCreateTargetFunction:                         "createTargetFunction",
	ShimPromiseContinuation:                          "promiseContinuation",
}

var _ [shimFunctionCount]string = shimFunctions

func (f ShimFunction) String() string {
	if f < 0 || f >= shimFunctionCount {
		return fmt.Sprintf("ShimFunction(%d)", int(f))
	}
	return shimFunctions[f]
}

// ThrowAccessorErrorFunctions is the number of accessor-error thunks per context.
const ThrowAccessorErrorFunctions = 4
