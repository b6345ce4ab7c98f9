// Package bytecode provides the instruction-level view of JVM-style method
// bodies consumed by the evaluator.
//
// The representation is deliberately structural rather than binary:
//
//   - Opcodes: the full stack-machine instruction set at class-file values,
//     plus a Label pseudo-instruction marking jump targets
//
//   - Insn: one instruction node with opcode-specific operands (local slots,
//     constants, field/method owner-name-descriptor triples, branch labels,
//     switch tables)
//
//   - InsnList: a read-only ordered sequence of instructions with label
//     resolution. Jumps and switches name labels, never offsets, so any
//     contiguous block can be lifted out and evaluated on its own
//
//   - Type / MethodType: parsed field and method descriptors
//
//   - Class / Method / Field: the declared-member handles returned by a
//     class lookup service
//
// # Textual form
//
// Every instruction has a textual form produced by FormatInsn and accepted by
// Assemble. Failure messages quote this form, class definition files embed
// method bodies in it, and tests build instruction lists with it:
//
//	    iconst_2
//	    iconst_3
//	    iconst_4
//	    imul
//	    iadd
//	    ireturn
//
// Instruction lists are never mutated after construction.
package bytecode
